package cmd

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"stfed/internal/config"
	"stfed/internal/daemon"
	"stfed/internal/db"
	"stfed/internal/hook"
	"stfed/internal/logger"
	"stfed/internal/model"
	"stfed/internal/repository"
	"stfed/internal/syncthing"
	"stfed/internal/watcher"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Start the daemon and run hooks on Syncthing events",
	RunE:  runDaemon,
}

// readHooks loads the hooks file. A missing file means no hooks.
func readHooks() ([]model.Hook, error) {
	if _, err := os.Stat(cfg.HooksFile); errors.Is(err, fs.ErrNotExist) {
		logger.Log.Warn("hooks file not found, no hook will run",
			zap.String("file", cfg.HooksFile))
		return nil, nil
	}

	return config.LoadHooks(cfg.HooksFile)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	defer logger.Sync()
	defer func() {
		_ = db.Close()
	}()

	if err := cfg.RequireAPI(); err != nil {
		return err
	}

	hooks, err := readHooks()
	if err != nil {
		return err
	}

	repo := repository.NewHookRunRepository()
	if n, err := repo.MarkInterrupted(); err != nil {
		logger.Log.Warn("failed to close interrupted hook runs", zap.Error(err))
	} else if n > 0 {
		logger.Log.Info("closed hook runs left from a previous daemon",
			zap.Int64("runs", n))
	}

	tracker := hook.NewTracker()
	supervisor := hook.NewSupervisor(tracker, repo, cfg.PollInterval)
	runner := hook.NewRunner(tracker, supervisor, repo)
	dispatcher := daemon.NewDispatcher(runner, hook.NewRegistry(hooks, 1))

	d := daemon.New(daemon.Options{
		Client: syncthing.Options{
			URL:          cfg.URL,
			APIKey:       cfg.APIKey,
			RESTTimeout:  cfg.RESTTimeout,
			EventTimeout: cfg.EventTimeout,
		},
		ReconnectDelay: cfg.ReconnectDelay,
	}, daemon.NewState(cfg.URL, tracker), dispatcher)

	if w, err := watcher.New(cfg.HooksFile, watcher.DefaultDelay); err != nil {
		logger.Log.Warn("hooks file reload disabled", zap.Error(err))
	} else if err := w.Start(); err != nil {
		w.Stop()
		logger.Log.Warn("hooks file reload disabled", zap.Error(err))
	} else {
		defer w.Stop()
		d.WithReload(w.Reloads(), readHooks)
	}

	srv := daemon.NewServer(d, repo, cfg.DaemonPort)
	srv.Start()

	logger.Log.Info("stfed daemon started",
		zap.Int("hooks", len(hooks)),
		zap.String("url", cfg.URL),
		zap.Int("port", cfg.DaemonPort))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Log.Info("shutting down",
				zap.String("signal", sig.String()))
		case <-srv.StopCh():
			logger.Log.Info("stop requested via API")
		case <-ctx.Done():
			return
		}
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		_ = supervisor.Run(ctx)
	})

	runErr := d.Run(ctx)
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Log.Warn("failed to stop status server", zap.Error(err))
	}

	if errors.Is(runErr, context.Canceled) {
		logger.Log.Info("stfed daemon stopped")
		return nil
	}

	logger.Log.Error("stfed daemon failed", zap.Error(runErr))
	return runErr
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
