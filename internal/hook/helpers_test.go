package hook

import (
	"stfed/internal/model"
	"sync"
	"time"
)

type fakeProcess struct {
	pid int

	mu     sync.Mutex
	exited bool
	status ExitStatus
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) exit(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exited = true
	p.status = ExitStatus{Code: code}
}

func (p *fakeProcess) TryWait() (ExitStatus, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, p.exited, nil
}

type startCall struct {
	command []string
	env     []string
}

type fakeStarter struct {
	mu    sync.Mutex
	calls []startCall
	procs []*fakeProcess
	err   error
}

func (f *fakeStarter) start(command []string, env []string) (Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, startCall{command: command, env: env})
	if f.err != nil {
		return nil, f.err
	}

	p := &fakeProcess{pid: 1000 + len(f.procs)}
	f.procs = append(f.procs, p)
	return p, nil
}

type exitRecord struct {
	runID string
	code  int
}

type memRecorder struct {
	mu     sync.Mutex
	starts []model.HookRun
	exits  []exitRecord
}

func (r *memRecorder) RecordStart(run *model.HookRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, *run)
	return nil
}

func (r *memRecorder) RecordExit(runID string, code int, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exits = append(r.exits, exitRecord{runID: runID, code: code})
	return nil
}

func (r *memRecorder) exitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.exits)
}

func isRunning(tr *Tracker, id model.HookID) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.running[id] > 0
}
