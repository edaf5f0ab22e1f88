package model

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// HookID identifies a hook for the lifetime of the process. Two hooks with
// identical content still get distinct ids.
type HookID int

type Hook struct {
	ID              HookID    `json:"id"`
	Folder          string    `json:"folder"`
	Event           EventKind `json:"event"`
	Filter          string    `json:"filter,omitempty"`
	Command         []string  `json:"command"`
	AllowConcurrent bool      `json:"allow_concurrent"`
}

// Matches reports whether the hook filter accepts the event path. The
// filter is ignored for folder level events. "*" does not cross "/",
// "**" spans directories and "{a,b}" picks alternatives.
func (h Hook) Matches(p string) bool {
	if h.Filter == "" || !h.Event.HasPath() {
		return true
	}

	ok, err := doublestar.Match(h.Filter, p)
	return err == nil && ok
}

func (h Hook) String() string {
	s := fmt.Sprintf("#%d %s %s [%s]", h.ID, h.Event, h.Folder, strings.Join(h.Command, " "))
	if h.Filter != "" {
		s += " filter=" + h.Filter
	}

	return s
}
