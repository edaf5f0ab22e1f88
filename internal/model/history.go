package model

import (
	"time"

	"gorm.io/gorm"
)

type RunStatus string

const (
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusExited  RunStatus = "EXITED"
	RunStatusFailed  RunStatus = "FAILED"
)

type HookRun struct {
	gorm.Model
	RunID      string     `gorm:"uniqueIndex;not null" json:"run_id"`
	HookID     HookID     `gorm:"not null" json:"hook_id"`
	Hook       string     `gorm:"not null" json:"hook"`
	Event      EventKind  `gorm:"not null" json:"event"`
	Folder     string     `gorm:"not null" json:"folder"`
	Path       string     `json:"path"`
	PID        int        `json:"pid"`
	Status     RunStatus  `gorm:"not null;default:'RUNNING'" json:"status"`
	ExitCode   *int       `json:"exit_code"`
	ErrMsg     string     `json:"error,omitempty"`
	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}
