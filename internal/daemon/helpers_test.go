package daemon

import (
	"context"
	"slices"
	"stfed/internal/hook"
	"stfed/internal/model"
	"stfed/internal/syncthing"
	"stfed/internal/syncthing/syncthingtest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const dataFolderID = "abcd-1234"

// exitedProcess has already exited when the supervisor first looks at it.
type exitedProcess struct {
	pid int
}

func (p exitedProcess) Pid() int { return p.pid }

func (p exitedProcess) TryWait() (hook.ExitStatus, bool, error) {
	return hook.ExitStatus{}, true, nil
}

type startCall struct {
	command []string
	env     []string
}

type recordingStarter struct {
	mu    sync.Mutex
	calls []startCall
}

func (s *recordingStarter) start(command []string, env []string) (hook.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, startCall{command: command, env: env})
	return exitedProcess{pid: 2000 + len(s.calls)}, nil
}

func (s *recordingStarter) Calls() []startCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

type harness struct {
	srv     *syncthingtest.Server
	starter *recordingStarter
	daemon  *Daemon
	reloads chan struct{}
	errCh   chan error
	cancel  context.CancelFunc
}

func newHarness(t *testing.T, hooks []model.Hook, load HookLoader) *harness {
	t.Helper()

	srv := syncthingtest.NewServer(syncthingtest.Folder{ID: dataFolderID, Path: "/data"})
	t.Cleanup(srv.Close)

	tracker := hook.NewTracker()
	supervisor := hook.NewSupervisor(tracker, nil, 10*time.Millisecond)
	starter := &recordingStarter{}
	runner := hook.NewRunner(tracker, supervisor, nil).WithStarter(starter.start)
	dispatcher := NewDispatcher(runner, hook.NewRegistry(hooks, 1))

	h := &harness{
		srv:     srv,
		starter: starter,
		reloads: make(chan struct{}, 1),
		errCh:   make(chan error, 1),
	}

	h.daemon = New(Options{
		Client: syncthing.Options{
			URL:          srv.URL,
			APIKey:       syncthingtest.APIKey,
			RESTTimeout:  2 * time.Second,
			EventTimeout: 5 * time.Second,
		},
		ReconnectDelay: 20 * time.Millisecond,
	}, NewState(srv.URL, tracker), dispatcher)
	if load != nil {
		h.daemon.WithReload(h.reloads, load)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	t.Cleanup(cancel)

	go func() { _ = supervisor.Run(ctx) }()
	go func() { h.errCh <- h.daemon.Run(ctx) }()

	return h
}

// waitPolls waits until the daemon has issued n event requests, which
// means every event served before the n-th was dispatched.
func (h *harness) waitPolls(t *testing.T, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return len(h.srv.EventQueries()) >= n
	}, 5*time.Second, 5*time.Millisecond)
}

func (h *harness) stop(t *testing.T) error {
	t.Helper()

	h.cancel()
	select {
	case err := <-h.errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
		return nil
	}
}

func txtHook() model.Hook {
	return model.Hook{
		Folder:  "/data",
		Event:   model.EventFileDownSyncDone,
		Filter:  "*.txt",
		Command: []string{"echo", "ok"},
	}
}

func runningIDs(tracker *hook.Tracker) []model.HookID {
	var ids []model.HookID
	for _, r := range tracker.Snapshot() {
		ids = append(ids, r.ID)
	}
	return ids
}
