// Package syncthingtest provides a scripted Syncthing REST server for tests.
package syncthingtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

const APIKey = "test-api-key"

// Hangup makes the server drop the connection without a response.
const Hangup = "\x00hangup"

type Folder struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Server answers /rest/system/config with Folders and /rest/events with
// queued bodies, one per request. With an empty queue, event requests
// block until something is pushed or the client goes away.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	folders []Folder
	queue   []string
	queries []url.Values
	configs int
	polled  chan struct{}
	pushed  chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewServer(folders ...Folder) *Server {
	s := &Server{
		folders: folders,
		polled:  make(chan struct{}, 128),
		pushed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Close releases blocked event requests before shutting down.
func (s *Server) Close() {
	s.once.Do(func() { close(s.done) })
	s.Server.Close()
}

// Push queues raw response bodies for the events endpoint.
func (s *Server) Push(bodies ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, bodies...)

	close(s.pushed)
	s.pushed = make(chan struct{})
}

// PushEvent queues a single event response.
func (s *Server) PushEvent(id uint64, typ string, data any) {
	s.Push(Event(id, typ, data))
}

// EventQueries returns the query of every events request received so far.
func (s *Server) EventQueries() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.queries...)
}

// ConfigRequests returns how many times the folder list was fetched.
func (s *Server) ConfigRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configs
}

// Polled receives a value for every events request.
func (s *Server) Polled() <-chan struct{} {
	return s.polled
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-API-Key") != APIKey {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	switch r.URL.Path {
	case "/rest/system/config":
		s.mu.Lock()
		s.configs++
		folders := s.folders
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"folders": folders})

	case "/rest/events":
		s.mu.Lock()
		s.queries = append(s.queries, r.URL.Query())
		s.mu.Unlock()

		select {
		case s.polled <- struct{}{}:
		default:
		}

		body, ok := s.pop(r)
		if !ok {
			return
		}

		if body == Hangup {
			hj, ok := w.(http.Hijacker)
			if !ok {
				http.Error(w, "hijack unsupported", http.StatusInternalServerError)
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, body)

	default:
		http.NotFound(w, r)
	}
}

// pop takes the next queued body, waiting for one if needed.
func (s *Server) pop(r *http.Request) (string, bool) {
	for r.Context().Err() == nil {
		s.mu.Lock()
		if len(s.queue) > 0 {
			body := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return body, true
		}
		pushed := s.pushed
		s.mu.Unlock()

		select {
		case <-r.Context().Done():
			return "", false
		case <-s.done:
			return "", false
		case <-pushed:
		}
	}

	return "", false
}

// Event renders a one element events response.
func Event(id uint64, typ string, data any) string {
	b, err := json.Marshal([]map[string]any{{
		"id":       id,
		"globalID": id,
		"type":     typ,
		"time":     "2024-01-01T12:00:00.000000000+01:00",
		"data":     data,
	}})
	if err != nil {
		panic(err)
	}

	return string(b)
}

func ItemFinished(folder, item string) map[string]any {
	return map[string]any{
		"folder": folder,
		"item":   item,
		"error":  nil,
		"type":   "file",
		"action": "update",
	}
}

func FolderSummary(folder string, needTotalItems uint64, stateChanged string) map[string]any {
	return map[string]any{
		"folder": folder,
		"summary": map[string]any{
			"needTotalItems": needTotalItems,
			"state":          "idle",
			"stateChanged":   stateChanged,
		},
	}
}

func LocalChangeDetected(folder, typ, action, path string) map[string]any {
	return map[string]any{
		"folder": folder,
		"label":  folder,
		"type":   typ,
		"action": action,
		"path":   path,
	}
}

func ConfigSaved(version uint64) map[string]any {
	return map[string]any{"version": version}
}
