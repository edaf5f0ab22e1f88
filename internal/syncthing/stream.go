package syncthing

import (
	"context"
	"stfed/internal/logger"
	"stfed/internal/model"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// Stream turns Syncthing's event feed into model events. It is infinite
// and not restartable: a new connection needs a new Stream.
//
// stateChanged keeps the last summary timestamp per folder id so repeated
// summaries of the same completion are dropped.
type Stream struct {
	client       *Client
	lastID       atomic.Uint64
	stateChanged map[string]string
}

func newStream(c *Client) *Stream {
	return &Stream{
		client:       c,
		stateChanged: make(map[string]string),
	}
}

// LastEventID is safe to call from other goroutines.
func (s *Stream) LastEventID() uint64 {
	return s.lastID.Load()
}

// Next blocks until the next event. Errors are *StreamError, or the
// context error when ctx is done.
func (s *Stream) Next(ctx context.Context) (model.Event, error) {
	for {
		raw, err := s.client.event(ctx, s.lastID.Load())
		if err != nil {
			return model.Event{}, err
		}

		if raw.ID > s.lastID.Load() {
			s.lastID.Store(raw.ID)
		}

		evt, ok, err := s.handle(raw)
		if err != nil {
			return model.Event{}, err
		}
		if ok {
			return evt, nil
		}
	}
}

func (s *Stream) handle(raw RawEvent) (model.Event, bool, error) {
	switch raw.Type {
	case TypeItemFinished:
		data, err := decodeData[ItemFinishedData](raw)
		if err != nil {
			return model.Event{}, false, err
		}

		folder, err := s.client.folderPath(data.Folder)
		if err != nil {
			return model.Event{}, false, err
		}

		return model.FileDownSyncDone(data.Item, folder), true, nil

	case TypeFolderSummary:
		data, err := decodeData[FolderSummaryData](raw)
		if err != nil {
			return model.Event{}, false, err
		}

		if data.Summary.NeedTotalItems > 0 {
			logger.Log.Debug("folder not synced yet",
				zap.String("folder_id", data.Folder),
				zap.Uint64("need_total_items", data.Summary.NeedTotalItems))
			return model.Event{}, false, nil
		}

		if prev, seen := s.stateChanged[data.Folder]; seen && prev == data.Summary.StateChanged {
			logger.Log.Debug("duplicate folder summary",
				zap.String("folder_id", data.Folder),
				zap.String("state_changed", prev))
			return model.Event{}, false, nil
		}

		folder, err := s.client.folderPath(data.Folder)
		if err != nil {
			return model.Event{}, false, err
		}
		s.stateChanged[data.Folder] = data.Summary.StateChanged

		return model.FolderDownSyncDone(folder), true, nil

	case TypeLocalChangeDetected:
		data, err := decodeData[LocalChangeDetectedData](raw)
		if err != nil {
			return model.Event{}, false, err
		}

		// A conflict copy shows up locally as a modified file,
		// see https://github.com/syncthing/syncthing/issues/6121
		if data.Type != "file" || data.Action != "modified" || !strings.Contains(data.Path, model.ConflictMarker) {
			return model.Event{}, false, nil
		}

		folder, err := s.client.folderPath(data.Folder)
		if err != nil {
			return model.Event{}, false, err
		}

		return model.FileConflict(data.Path, folder), true, nil

	case TypeConfigSaved:
		return model.Event{}, false, &StreamError{Kind: KindConfigChanged, Err: ErrConfigSaved}

	default:
		return model.Event{}, false, fatalf("unhandled event type %q (id %d)", raw.Type, raw.ID)
	}
}
