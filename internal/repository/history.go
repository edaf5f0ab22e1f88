package repository

import (
	"fmt"
	"stfed/internal/db"
	"stfed/internal/model"
	"time"
)

// HookRunRepository stores one row per spawned hook.
type HookRunRepository struct{}

func NewHookRunRepository() *HookRunRepository {
	return &HookRunRepository{}
}

func (r *HookRunRepository) RecordStart(run *model.HookRun) error {
	return db.DB.Create(run).Error
}

func (r *HookRunRepository) RecordExit(runID string, code int, finishedAt time.Time) error {
	result := db.DB.Model(&model.HookRun{}).
		Where("run_id = ?", runID).
		Updates(map[string]any{
			"status":      model.RunStatusExited,
			"exit_code":   code,
			"finished_at": finishedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no hook run %s", runID)
	}

	return nil
}

// MarkInterrupted closes runs left RUNNING by a previous daemon.
func (r *HookRunRepository) MarkInterrupted() (int64, error) {
	result := db.DB.Model(&model.HookRun{}).
		Where("status = ?", model.RunStatusRunning).
		Updates(map[string]any{
			"status":  model.RunStatusFailed,
			"err_msg": "daemon stopped before the hook exited",
		})

	return result.RowsAffected, result.Error
}

func (r *HookRunRepository) GetStats() (model.RunStats, error) {
	var stats model.RunStats
	if err := db.DB.Model(&model.HookRun{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.HookRun{}).
		Where("status = ?", model.RunStatusRunning).
		Count(&stats.Running).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.HookRun{}).
		Where("status = ?", model.RunStatusFailed).
		Count(&stats.Failed).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.HookRun{}).
		Where("status = ? AND exit_code <> 0", model.RunStatusExited).
		Count(&stats.NonZero).Error; err != nil {
		return stats, err
	}

	return stats, nil
}

func (r *HookRunRepository) GetRecent(limit int) ([]model.HookRun, error) {
	var runs []model.HookRun
	result := db.DB.
		Order("started_at desc").
		Order("id desc").
		Limit(limit).
		Find(&runs)

	return runs, result.Error
}

func (r *HookRunRepository) GetByRunID(runID string) (model.HookRun, error) {
	var run model.HookRun
	return run, db.DB.Where("run_id = ?", runID).First(&run).Error
}
