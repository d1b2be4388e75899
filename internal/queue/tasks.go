package queue

import (
	"encoding/json"
	"time"

	"github.com/pricetide/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskSchedulerSweep 调度 sweep 任务
	TaskSchedulerSweep = constants.TaskSchedulerSweep
)

// SchedulerSweepPayload 调度 sweep 任务载荷
type SchedulerSweepPayload struct {
	FireAt time.Time `json:"fire_at"` // 触发该任务的事件时间（仅用于日志）
}

// NewSchedulerSweepTask 创建调度 sweep 任务
func NewSchedulerSweepTask(payload SchedulerSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSchedulerSweep, body), nil
}
