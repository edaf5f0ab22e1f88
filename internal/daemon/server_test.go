package daemon

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"stfed/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStatus struct {
	snap  model.StatusSnapshot
	hooks []model.Hook
}

func (f *fakeStatus) Snapshot() model.StatusSnapshot { return f.snap }
func (f *fakeStatus) Hooks() []model.Hook            { return f.hooks }

type fakeHistory struct {
	runs  []model.HookRun
	limit int
	err   error
}

func (f *fakeHistory) GetRecent(limit int) ([]model.HookRun, error) {
	f.limit = limit
	return f.runs, f.err
}

func (f *fakeHistory) GetByRunID(runID string) (model.HookRun, error) {
	if f.err != nil {
		return model.HookRun{}, f.err
	}
	for _, r := range f.runs {
		if r.RunID == runID {
			return r, nil
		}
	}
	return model.HookRun{}, gorm.ErrRecordNotFound
}

func (f *fakeHistory) GetStats() (model.RunStats, error) {
	return model.RunStats{Total: int64(len(f.runs))}, f.err
}

func serve(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestServer_Status(t *testing.T) {
	status := &fakeStatus{snap: model.StatusSnapshot{
		Connected:   true,
		URL:         "http://127.0.0.1:8384",
		LastEventID: 42,
		Folders:     2,
		Running:     []model.RunningHook{{ID: 3, Description: "#3 hook", Count: 1}},
	}}
	s := NewServer(status, &fakeHistory{runs: make([]model.HookRun, 5)}, 0)

	rec := serve(t, s, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.StatusSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Connected)
	assert.Equal(t, uint64(42), got.LastEventID)
	assert.Equal(t, status.snap.Running, got.Running)
	require.NotNil(t, got.Runs)
	assert.Equal(t, int64(5), got.Runs.Total)
}

func TestServer_StatusEmptyRunning(t *testing.T) {
	s := NewServer(&fakeStatus{}, nil, 0)

	rec := serve(t, s, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"running":[]`)
	assert.NotContains(t, rec.Body.String(), `"runs"`)
}

func TestServer_Hooks(t *testing.T) {
	h := txtHook()
	h.ID = 7
	s := NewServer(&fakeStatus{hooks: []model.Hook{h}}, nil, 0)

	rec := serve(t, s, http.MethodGet, "/hooks")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []model.Hook
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []model.Hook{h}, got)
}

func TestServer_History(t *testing.T) {
	history := &fakeHistory{runs: []model.HookRun{{RunID: "r1"}}}
	s := NewServer(&fakeStatus{}, history, 0)

	rec := serve(t, s, http.MethodGet, "/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, history.limit)

	var got []model.HookRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].RunID)

	rec = serve(t, s, http.MethodGet, "/history?n=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, history.limit)

	rec = serve(t, s, http.MethodGet, "/history?n=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	history.err = errors.New("db closed")
	rec = serve(t, s, http.MethodGet, "/history")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_HistoryRun(t *testing.T) {
	history := &fakeHistory{runs: []model.HookRun{
		{RunID: "r1", HookID: 2, Status: model.RunStatusExited},
		{RunID: "r2", HookID: 3, Status: model.RunStatusRunning},
	}}
	s := NewServer(&fakeStatus{}, history, 0)

	rec := serve(t, s, http.MethodGet, "/history/r2")
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.HookRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "r2", got.RunID)
	assert.Equal(t, model.HookID(3), got.HookID)

	rec = serve(t, s, http.MethodGet, "/history/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	history.err = errors.New("db closed")
	rec = serve(t, s, http.MethodGet, "/history/r1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = serve(t, NewServer(&fakeStatus{}, nil, 0), http.MethodGet, "/history/r1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_Stop(t *testing.T) {
	s := NewServer(&fakeStatus{}, nil, 0)

	rec := serve(t, s, http.MethodPost, "/stop")
	require.Equal(t, http.StatusOK, rec.Code)

	// A second request does not block on the pending one.
	rec = serve(t, s, http.MethodPost, "/stop")
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-s.StopCh():
	default:
		t.Fatal("stop was not signaled")
	}
}

func TestServer_Addr(t *testing.T) {
	s := NewServer(&fakeStatus{}, nil, 8385)
	assert.Equal(t, "127.0.0.1:8385", s.Addr())
}
