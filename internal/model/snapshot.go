package model

type RunningHook struct {
	ID          HookID `json:"id"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

type RunStats struct {
	Total   int64 `json:"total"`
	Running int64 `json:"running"`
	Failed  int64 `json:"failed"`
	NonZero int64 `json:"non_zero"`
}

type StatusSnapshot struct {
	Connected   bool          `json:"connected"`
	URL         string        `json:"url"`
	LastEventID uint64        `json:"last_event_id"`
	Folders     int           `json:"folders"`
	Reconnects  int           `json:"reconnects"`
	Hooks       int           `json:"hooks"`
	Running     []RunningHook `json:"running"`
	Runs        *RunStats     `json:"runs,omitempty"`
}
