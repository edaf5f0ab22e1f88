package hook

import (
	"context"
	"stfed/internal/logger"
	"stfed/internal/model"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPollInterval = 500 * time.Millisecond

	handoffSize = 256
)

// Recorder persists hook runs. Errors are logged and otherwise ignored.
type Recorder interface {
	RecordStart(run *model.HookRun) error
	RecordExit(runID string, code int, finishedAt time.Time) error
}

type nopRecorder struct{}

func (nopRecorder) RecordStart(*model.HookRun) error        { return nil }
func (nopRecorder) RecordExit(string, int, time.Time) error { return nil }

// Watched is a started process handed over to the supervisor.
type Watched struct {
	Hook    model.Hook
	RunID   string
	Proc    Process
	Started time.Time
}

// Supervisor owns every started hook process. It polls them for exit and
// releases their tracker slot once reaped. Processes are never killed.
type Supervisor struct {
	tracker  *Tracker
	recorder Recorder
	interval time.Duration
	handoff  chan Watched
	done     chan struct{}
}

func NewSupervisor(tracker *Tracker, recorder Recorder, interval time.Duration) *Supervisor {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Supervisor{
		tracker:  tracker,
		recorder: recorder,
		interval: interval,
		handoff:  make(chan Watched, handoffSize),
		done:     make(chan struct{}),
	}
}

// Watch hands a process over. It reports false once Run has returned;
// the process then keeps its tracker slot like any process still running
// at shutdown.
func (s *Supervisor) Watch(w Watched) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.handoff <- w:
		return true
	case <-s.done:
		return false
	}
}

// Run loops until ctx is done. Processes still running at that point
// keep their tracker slot. Run must not be called more than once.
func (s *Supervisor) Run(ctx context.Context) error {
	defer close(s.done)

	var watching []Watched

	for {
		if len(watching) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case w := <-s.handoff:
				watching = append(watching, w)
			}
		} else {
			timer := time.NewTimer(s.interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				logger.Log.Info("supervisor stopping",
					zap.Int("still_running", len(watching)))
				return ctx.Err()
			case w := <-s.handoff:
				watching = append(watching, w)
			case <-timer.C:
			}
			timer.Stop()
		}

		watching = s.reap(watching)
	}
}

// reap polls every watched process until a full pass reaps nothing.
func (s *Supervisor) reap(watching []Watched) []Watched {
	for {
		reaped := false

		for i := 0; i < len(watching); i++ {
			w := watching[i]
			status, exited, err := w.Proc.TryWait()
			if err != nil {
				logger.Log.Error("failed to wait for hook process, releasing it",
					zap.Int("hook", int(w.Hook.ID)),
					zap.Int("pid", w.Proc.Pid()),
					zap.Error(err))
				status, exited = ExitStatus{Code: -1}, true
			}
			if !exited {
				continue
			}

			s.finish(w, status)

			watching[i] = watching[len(watching)-1]
			watching = watching[:len(watching)-1]
			i--
			reaped = true
		}

		if !reaped {
			return watching
		}
	}
}

func (s *Supervisor) finish(w Watched, status ExitStatus) {
	now := time.Now()
	fields := []zap.Field{
		zap.Int("hook", int(w.Hook.ID)),
		zap.String("run_id", w.RunID),
		zap.Int("pid", w.Proc.Pid()),
		zap.Int("exit_code", status.Code),
		zap.Duration("duration", now.Sub(w.Started)),
	}
	if status.Signal != "" {
		fields = append(fields, zap.String("signal", status.Signal))
	}
	logger.Log.Info("hook process exited", fields...)

	s.tracker.Release(w.Hook.ID)

	if err := s.recorder.RecordExit(w.RunID, status.Code, now); err != nil {
		logger.Log.Warn("failed to record hook exit",
			zap.String("run_id", w.RunID),
			zap.Error(err))
	}
}
