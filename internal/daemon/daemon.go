package daemon

import (
	"context"
	"fmt"
	"slices"
	"stfed/internal/hook"
	"stfed/internal/logger"
	"stfed/internal/model"
	"stfed/internal/syncthing"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const DefaultReconnectDelay = 5 * time.Second

// HookLoader returns the current hook configuration.
type HookLoader func() ([]model.Hook, error)

type Options struct {
	Client         syncthing.Options
	ReconnectDelay time.Duration
}

// Daemon drives the event stream. It owns the reconnect policy: a gone
// server, a Syncthing config change and a refused connection restart the
// client after ReconnectDelay with a fresh cursor. Any other error ends Run.
type Daemon struct {
	opts       Options
	state      *State
	dispatcher *Dispatcher
	client     atomic.Pointer[syncthing.Client]
	reloads    <-chan struct{}
	loadHooks  HookLoader
}

func New(opts Options, state *State, dispatcher *Dispatcher) *Daemon {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}

	return &Daemon{
		opts:       opts,
		state:      state,
		dispatcher: dispatcher,
	}
}

// WithReload makes the daemon reload its hooks whenever reloads fires.
// The new hooks apply to the next dispatched event; the stream and its
// cursor are kept.
func (d *Daemon) WithReload(reloads <-chan struct{}, load HookLoader) *Daemon {
	d.reloads = reloads
	d.loadHooks = load
	return d
}

func (d *Daemon) Snapshot() model.StatusSnapshot {
	snap := d.state.Snapshot()
	snap.Hooks = d.dispatcher.Registry().Len()
	return snap
}

func (d *Daemon) Hooks() []model.Hook {
	return d.dispatcher.Registry().Hooks()
}

// Run blocks until ctx is done or the stream fails in a way that is not
// retried.
func (d *Daemon) Run(ctx context.Context) error {
	if d.reloads != nil {
		go d.watchReloads(ctx)
	}

	for {
		err := d.stream(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch kind := syncthing.KindOf(err); kind {
		case syncthing.KindGone, syncthing.KindConfigChanged, syncthing.KindRefused:
			logger.Log.Warn("event stream interrupted, reconnecting",
				zap.Stringer("reason", kind),
				zap.Duration("delay", d.opts.ReconnectDelay),
				zap.Error(err))
		default:
			return fmt.Errorf("event stream failed: %w", err)
		}

		timer := time.NewTimer(d.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		d.state.RecordReconnect()
	}
}

// stream runs one client from construction until it fails.
func (d *Daemon) stream(ctx context.Context) error {
	client, err := syncthing.New(ctx, d.opts.Client)
	if err != nil {
		return err
	}

	stream := client.Stream()
	d.client.Store(client)
	d.state.SetConnected(client, stream)
	defer func() {
		d.client.Store(nil)
		d.state.SetDisconnected()
	}()

	logger.Log.Info("connected to Syncthing",
		zap.String("url", client.URL()),
		zap.Int("folders", len(client.Folders())))
	d.warnUnknownFolders(client)

	for {
		evt, err := stream.Next(ctx)
		if err != nil {
			return err
		}

		logger.Log.Debug("event",
			zap.Stringer("event", evt),
			zap.Uint64("id", stream.LastEventID()))

		d.dispatcher.Dispatch(evt)
	}
}

func (d *Daemon) watchReloads(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.reloads:
			d.reload()
		}
	}
}

func (d *Daemon) reload() {
	hooks, err := d.loadHooks()
	if err != nil {
		logger.Log.Error("failed to reload hooks, keeping the previous ones",
			zap.Error(err))
		return
	}

	next := hook.NewRegistry(hooks, d.dispatcher.Registry().NextID())
	d.dispatcher.SetRegistry(next)

	logger.Log.Info("hooks reloaded",
		zap.Int("hooks", next.Len()))

	if client := d.client.Load(); client != nil {
		d.warnUnknownFolders(client)
	}
}

func (d *Daemon) warnUnknownFolders(client *syncthing.Client) {
	folders := make([]string, 0, len(client.Folders()))
	for _, p := range client.Folders() {
		folders = append(folders, p)
	}

	for _, h := range d.dispatcher.Registry().Hooks() {
		if !slices.Contains(folders, h.Folder) {
			logger.Log.Warn("hook folder is not shared by Syncthing",
				zap.Stringer("hook", h))
		}
	}
}
