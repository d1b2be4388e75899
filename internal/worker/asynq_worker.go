package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pricetide/internal/logger"
	"github.com/pricetide/internal/provider"
	"github.com/pricetide/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSchedulerSweep, c.handleSchedulerSweep)
}

// handleSchedulerSweep 处理队列触发的 sweep。
// 任务只是提醒，重复投递或与定时 sweep 并发都安全：
// 每个到期事件由数据库侧的原子认领保证至多生效一次。
func (c *Consumer) handleSchedulerSweep(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SchedulerSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_sweep_unmarshal_failed", "error", err)
		return err
	}
	if c.SchedulerService == nil {
		logger.Warnw("worker_sweep_skip_scheduler_nil")
		return nil
	}
	result, err := c.SchedulerService.Sweep(ctx, time.Now())
	if err != nil {
		logger.Warnw("worker_sweep_failed", "fire_at", payload.FireAt, "error", err)
		return err
	}
	logger.Debugw("worker_sweep_done",
		"fire_at", payload.FireAt,
		"due", result.Due,
		"applied", result.Applied,
		"skipped", result.Skipped,
	)
	return nil
}
