package hook

import (
	"fmt"
	"stfed/internal/logger"
	"stfed/internal/model"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Runner struct {
	tracker    *Tracker
	supervisor *Supervisor
	recorder   Recorder
	start      Starter
}

func NewRunner(tracker *Tracker, supervisor *Supervisor, recorder Recorder) *Runner {
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &Runner{
		tracker:    tracker,
		supervisor: supervisor,
		recorder:   recorder,
		start:      StartCommand,
	}
}

// WithStarter replaces the process launcher.
func (r *Runner) WithStarter(start Starter) *Runner {
	r.start = start
	return r
}

// Run starts h for evt unless the concurrency policy forbids it. The
// returned error is a spawn failure; a skipped run is not an error.
func (r *Runner) Run(h model.Hook, evt model.Event) (bool, error) {
	if !r.tracker.TryStart(h) {
		logger.Log.Warn("hook already running and allow_concurrent is false, skipping",
			zap.Stringer("hook", h),
			zap.String("path", evt.Path),
			zap.String("folder", evt.Folder))
		return false, nil
	}

	path := evt.AbsPath()
	run := &model.HookRun{
		RunID:     uuid.NewString(),
		HookID:    h.ID,
		Hook:      h.String(),
		Event:     evt.Kind,
		Folder:    evt.Folder,
		Path:      path,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now(),
	}

	logger.Log.Info("running hook",
		zap.Stringer("hook", h),
		zap.String("run_id", run.RunID),
		zap.String("path", path),
		zap.String("folder", evt.Folder))

	proc, err := r.start(h.Command, []string{
		EnvPath + "=" + path,
		EnvFolder + "=" + evt.Folder,
	})
	if err != nil {
		r.tracker.Release(h.ID)

		run.Status = model.RunStatusFailed
		run.ErrMsg = err.Error()
		r.record(run)

		return false, fmt.Errorf("failed to start hook %d: %w", h.ID, err)
	}

	run.PID = proc.Pid()
	r.record(run)

	if !r.supervisor.Watch(Watched{
		Hook:    h,
		RunID:   run.RunID,
		Proc:    proc,
		Started: run.StartedAt,
	}) {
		logger.Log.Warn("supervisor stopped, hook process will not be reaped",
			zap.String("run_id", run.RunID),
			zap.Int("pid", run.PID))
	}

	return true, nil
}

func (r *Runner) record(run *model.HookRun) {
	if err := r.recorder.RecordStart(run); err != nil {
		logger.Log.Warn("failed to record hook run",
			zap.String("run_id", run.RunID),
			zap.Error(err))
	}
}
