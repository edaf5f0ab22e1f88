package daemon

import (
	"stfed/internal/hook"
	"stfed/internal/logger"
	"stfed/internal/model"
	"sync/atomic"

	"go.uber.org/zap"
)

// Dispatcher matches events against the current registry and runs the
// matching hooks. The registry may be swapped while events are dispatched.
type Dispatcher struct {
	runner   *hook.Runner
	registry atomic.Pointer[hook.Registry]
}

func NewDispatcher(runner *hook.Runner, registry *hook.Registry) *Dispatcher {
	d := &Dispatcher{runner: runner}
	d.registry.Store(registry)
	return d
}

func (d *Dispatcher) Registry() *hook.Registry {
	return d.registry.Load()
}

func (d *Dispatcher) SetRegistry(r *hook.Registry) {
	d.registry.Store(r)
}

// Dispatch runs every hook matching evt and returns how many were started.
// Spawn failures are logged and do not stop the remaining hooks.
func (d *Dispatcher) Dispatch(evt model.Event) int {
	reg := d.Registry()
	started := 0

	for _, e := range evt.Expand() {
		hooks := reg.Match(e)
		if len(hooks) == 0 {
			logger.Log.Debug("no hook for event",
				zap.Stringer("event", e))
			continue
		}

		for _, h := range hooks {
			ok, err := d.runner.Run(h, e)
			if err != nil {
				logger.Log.Error("failed to run hook",
					zap.Stringer("hook", h),
					zap.String("path", e.Path),
					zap.String("folder", e.Folder),
					zap.Error(err))
				continue
			}
			if ok {
				started++
			}
		}
	}

	return started
}
