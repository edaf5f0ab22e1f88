package model

import (
	"fmt"
	"path"
	"path/filepath"
)

type EventKind string

const (
	EventFolderDownSyncDone EventKind = "folder_down_sync_done"
	EventFileDownSyncDone   EventKind = "file_down_sync_done"
	EventFileConflict       EventKind = "file_conflict"
	EventRemoteFileConflict EventKind = "remote_file_conflict"
)

var EventKinds = []EventKind{
	EventFolderDownSyncDone,
	EventFileDownSyncDone,
	EventFileConflict,
	EventRemoteFileConflict,
}

func ParseEventKind(s string) (EventKind, error) {
	for _, k := range EventKinds {
		if string(k) == s {
			return k, nil
		}
	}

	return "", fmt.Errorf("unknown event kind %q", s)
}

// HasPath reports whether events of this kind carry a file path.
func (k EventKind) HasPath() bool {
	return k != EventFolderDownSyncDone
}

// Syncthing names conflict copies "<name>.sync-conflict-<date>-<time>-<device>.<ext>".
const (
	ConflictMarker  = ".sync-conflict-"
	ConflictPattern = "*" + ConflictMarker + "*"
)

// IsConflictName reports whether the base name of p follows the conflict copy convention.
func IsConflictName(p string) bool {
	ok, _ := path.Match(ConflictPattern, path.Base(filepath.ToSlash(p)))
	return ok
}

// Event is a normalized Syncthing event. Path is relative to Folder and
// empty for folder level events; Folder is an absolute, cleaned path.
type Event struct {
	Kind   EventKind
	Path   string
	Folder string
}

func FileDownSyncDone(p, folder string) Event {
	return Event{Kind: EventFileDownSyncDone, Path: p, Folder: folder}
}

func FolderDownSyncDone(folder string) Event {
	return Event{Kind: EventFolderDownSyncDone, Folder: folder}
}

func FileConflict(p, folder string) Event {
	return Event{Kind: EventFileConflict, Path: p, Folder: folder}
}

func RemoteFileConflict(p, folder string) Event {
	return Event{Kind: EventRemoteFileConflict, Path: p, Folder: folder}
}

// AbsPath returns the event path joined to its folder, or "" for folder events.
func (e Event) AbsPath() string {
	if e.Path == "" {
		return ""
	}

	return filepath.Join(e.Folder, filepath.FromSlash(e.Path))
}

// Expand returns the dispatches a single event fans out to. A finished
// download of a conflict copy is also a remote conflict.
func (e Event) Expand() []Event {
	if e.Kind == EventFileDownSyncDone && IsConflictName(e.Path) {
		return []Event{e, RemoteFileConflict(e.Path, e.Folder)}
	}

	return []Event{e}
}

func (e Event) String() string {
	if e.Path == "" {
		return fmt.Sprintf("%s{folder=%s}", e.Kind, e.Folder)
	}

	return fmt.Sprintf("%s{path=%s folder=%s}", e.Kind, e.Path, e.Folder)
}
