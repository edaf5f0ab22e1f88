package syncthing

import "encoding/json"

// Raw event types, see https://docs.syncthing.net/dev/events.html
const (
	TypeConfigSaved         = "ConfigSaved"
	TypeFolderSummary       = "FolderSummary"
	TypeItemFinished        = "ItemFinished"
	TypeLocalChangeDetected = "LocalChangeDetected"
)

// Every type listed here must have a case in Stream.handle.
var subscribedTypes = []string{
	TypeItemFinished,
	TypeFolderSummary,
	TypeLocalChangeDetected,
	TypeConfigSaved,
}

type RawEvent struct {
	ID       uint64          `json:"id"`
	GlobalID uint64          `json:"globalID"`
	Type     string          `json:"type"`
	Time     string          `json:"time"`
	Data     json.RawMessage `json:"data"`
}

type ItemFinishedData struct {
	Item   string  `json:"item"`
	Folder string  `json:"folder"`
	Error  *string `json:"error"`
	Type   string  `json:"type"`
	Action string  `json:"action"`
}

type FolderSummaryData struct {
	Folder  string        `json:"folder"`
	Summary FolderSummary `json:"summary"`
}

type FolderSummary struct {
	GlobalTotalItems uint64 `json:"globalTotalItems"`
	NeedTotalItems   uint64 `json:"needTotalItems"`
	NeedBytes        uint64 `json:"needBytes"`
	PullErrors       uint64 `json:"pullErrors"`
	Sequence         uint64 `json:"sequence"`
	State            string `json:"state"`
	StateChanged     string `json:"stateChanged"`
}

type LocalChangeDetectedData struct {
	Action string `json:"action"`
	Folder string `json:"folder"`
	Label  string `json:"label"`
	Type   string `json:"type"`
	Path   string `json:"path"`
}

type ConfigSavedData struct {
	Version uint64 `json:"version"`
}

// SystemConfig is the subset of /rest/system/config used here.
type SystemConfig struct {
	Folders []SystemConfigFolder `json:"folders"`
}

type SystemConfigFolder struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Path  string `json:"path"`
}
