package hook

import (
	"slices"
	"stfed/internal/model"
	"sync"
)

// Tracker counts the unreaped processes of every hook. It is shared by
// the dispatcher, which starts runs, and the supervisor, which ends them.
type Tracker struct {
	mu      sync.Mutex
	running map[model.HookID]int
	names   map[model.HookID]string
}

func NewTracker() *Tracker {
	return &Tracker{
		running: make(map[model.HookID]int),
		names:   make(map[model.HookID]string),
	}
}

// TryStart reserves a run slot for h. It fails only when h does not allow
// concurrent runs and a previous run has not been reaped yet.
func (t *Tracker) TryStart(h model.Hook) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !h.AllowConcurrent && t.running[h.ID] > 0 {
		return false
	}

	t.running[h.ID]++
	t.names[h.ID] = h.String()
	return true
}

// Release frees one run slot of id.
func (t *Tracker) Release(id model.HookID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running[id] <= 1 {
		delete(t.running, id)
		delete(t.names, id)
		return
	}

	t.running[id]--
}

// Snapshot lists running hooks ordered by id.
func (t *Tracker) Snapshot() []model.RunningHook {
	t.mu.Lock()
	snaps := make([]model.RunningHook, 0, len(t.running))
	for id, count := range t.running {
		snaps = append(snaps, model.RunningHook{
			ID:          id,
			Description: t.names[id],
			Count:       count,
		})
	}
	t.mu.Unlock()

	slices.SortFunc(snaps, func(a, b model.RunningHook) int {
		return int(a.ID) - int(b.ID)
	})
	return snaps
}
