package app

import (
	"context"
	"errors"
	"time"

	"github.com/pricetide/internal/logger"
	"github.com/pricetide/internal/service"

	"github.com/go-co-op/gocron/v2"
)

// SweepService 进程内兜底 sweep 定时服务。
// 启动时立即执行一次（补上停机期间到期的事件），之后按固定间隔扫描。
// 与队列任务、webhook 触发的 sweep 并发安全。
type SweepService struct {
	name      string
	scheduler gocron.Scheduler
	svc       *service.SchedulerService
	interval  time.Duration
}

// NewSweepService 创建兜底 sweep 服务
func NewSweepService(svc *service.SchedulerService, intervalSeconds int) (*SweepService, error) {
	if svc == nil {
		return nil, errors.New("scheduler service is nil")
	}
	interval := time.Duration(intervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &SweepService{
		name:      "sweeper",
		scheduler: scheduler,
		svc:       svc,
		interval:  interval,
	}, nil
}

// Name 服务名称
func (s *SweepService) Name() string {
	if s == nil || s.name == "" {
		return "sweeper"
	}
	return s.name
}

// Start 启动服务，阻塞直至 ctx 取消
func (s *SweepService) Start(ctx context.Context) error {
	if s == nil || s.scheduler == nil {
		return errors.New("sweeper not initialized")
	}
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			if _, err := s.svc.Sweep(ctx, time.Now()); err != nil {
				logger.Warnw("sweeper_run_failed", "error", err)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return err
	}
	s.scheduler.Start()
	<-ctx.Done()
	return nil
}

// Stop 停止服务
func (s *SweepService) Stop(ctx context.Context) error {
	if s == nil || s.scheduler == nil {
		return nil
	}
	_ = ctx
	return s.scheduler.Shutdown()
}
