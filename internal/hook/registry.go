package hook

import (
	"stfed/internal/model"
)

type registryKey struct {
	event  model.EventKind
	folder string
}

// Registry indexes hooks by exact (event, folder). Hooks keep the order
// they were configured in.
type Registry struct {
	hooks  []model.Hook
	index  map[registryKey][]model.Hook
	nextID model.HookID
}

// NewRegistry assigns ids starting at firstID in configuration order.
// Registries built for successive reloads should not share ids.
func NewRegistry(hooks []model.Hook, firstID model.HookID) *Registry {
	r := &Registry{
		hooks: make([]model.Hook, 0, len(hooks)),
		index: make(map[registryKey][]model.Hook),
	}

	for i, h := range hooks {
		h.ID = firstID + model.HookID(i)
		r.hooks = append(r.hooks, h)

		key := registryKey{event: h.Event, folder: h.Folder}
		r.index[key] = append(r.index[key], h)
	}
	r.nextID = firstID + model.HookID(len(hooks))

	return r
}

// Lookup returns the hooks registered for kind on folder.
func (r *Registry) Lookup(kind model.EventKind, folder string) []model.Hook {
	return r.index[registryKey{event: kind, folder: folder}]
}

// Match returns the hooks that should run for evt, filters applied.
func (r *Registry) Match(evt model.Event) []model.Hook {
	var matched []model.Hook
	for _, h := range r.Lookup(evt.Kind, evt.Folder) {
		if h.Matches(evt.Path) {
			matched = append(matched, h)
		}
	}

	return matched
}

func (r *Registry) Hooks() []model.Hook {
	return r.hooks
}

func (r *Registry) Len() int {
	return len(r.hooks)
}

// NextID is the first id a following registry should use.
func (r *Registry) NextID() model.HookID {
	return r.nextID
}
