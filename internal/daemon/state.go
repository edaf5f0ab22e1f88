package daemon

import (
	"stfed/internal/hook"
	"stfed/internal/model"
	"stfed/internal/syncthing"
	"sync"
)

// State is what the status API reports about the event loop.
type State struct {
	mu          sync.RWMutex
	url         string
	connected   bool
	folders     int
	reconnects  int
	lastEventID uint64
	stream      *syncthing.Stream
	tracker     *hook.Tracker
}

func NewState(url string, tracker *hook.Tracker) *State {
	return &State{
		url:     url,
		tracker: tracker,
	}
}

func (s *State) SetConnected(c *syncthing.Client, stream *syncthing.Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = true
	s.url = c.URL()
	s.folders = len(c.Folders())
	s.lastEventID = 0
	s.stream = stream
}

func (s *State) SetDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		s.lastEventID = s.stream.LastEventID()
	}
	s.connected = false
	s.stream = nil
}

func (s *State) RecordReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
}

func (s *State) Snapshot() model.StatusSnapshot {
	s.mu.RLock()
	snap := model.StatusSnapshot{
		Connected:   s.connected,
		URL:         s.url,
		LastEventID: s.lastEventID,
		Folders:     s.folders,
		Reconnects:  s.reconnects,
	}
	if s.stream != nil {
		snap.LastEventID = s.stream.LastEventID()
	}
	s.mu.RUnlock()

	snap.Running = s.tracker.Snapshot()
	return snap
}
