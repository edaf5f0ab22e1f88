package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"stfed/internal/logger"
	"stfed/internal/model"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultHistoryN = 20

// StatusProvider is the part of the daemon the API reports on.
type StatusProvider interface {
	Snapshot() model.StatusSnapshot
	Hooks() []model.Hook
}

type HistoryReader interface {
	GetRecent(limit int) ([]model.HookRun, error)
	GetByRunID(runID string) (model.HookRun, error)
	GetStats() (model.RunStats, error)
}

type Server struct {
	echo    *echo.Echo
	status  StatusProvider
	history HistoryReader
	port    int
	stopCh  chan struct{}
}

func NewServer(status StatusProvider, history HistoryReader, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:    e,
		status:  status,
		history: history,
		port:    port,
		stopCh:  make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)
	s.echo.GET("/hooks", s.handleHooks)
	s.echo.GET("/history", s.handleHistory)
	s.echo.GET("/history/:run_id", s.handleRun)
	s.echo.POST("/stop", s.handleStop)
}

func (s *Server) Addr() string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(s.port))
}

func (s *Server) Start() {
	go func() {
		addr := s.Addr()
		logger.Log.Info("status server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("status server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// StopCh receives when a client asked the daemon to stop.
func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) handleStatus(c echo.Context) error {
	snap := s.status.Snapshot()
	if snap.Running == nil {
		snap.Running = []model.RunningHook{}
	}

	if s.history != nil {
		stats, err := s.history.GetStats()
		if err != nil {
			logger.Log.Warn("failed to read hook run stats", zap.Error(err))
		} else {
			snap.Runs = &stats
		}
	}

	return c.JSON(http.StatusOK, snap)
}

func (s *Server) handleHooks(c echo.Context) error {
	hooks := s.status.Hooks()
	if hooks == nil {
		hooks = []model.Hook{}
	}

	return c.JSON(http.StatusOK, hooks)
}

func (s *Server) handleStop(c echo.Context) error {
	select {
	case s.stopCh <- struct{}{}:
	default:
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleHistory(c echo.Context) error {
	if s.history == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "history is disabled"})
	}

	n := defaultHistoryN
	if nStr := c.QueryParam("n"); nStr != "" {
		parsed, err := strconv.Atoi(nStr)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid n"})
		}
		n = parsed
	}

	runs, err := s.history.GetRecent(n)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleRun(c echo.Context) error {
	if s.history == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "history is disabled"})
	}

	run, err := s.history.GetByRunID(c.Param("run_id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, run)
}
