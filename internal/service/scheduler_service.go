package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pricetide/internal/constants"
	"github.com/pricetide/internal/logger"
	"github.com/pricetide/internal/models"
	"github.com/pricetide/internal/repository"

	"golang.org/x/sync/errgroup"
)

const (
	defaultSweepBatchSize   = 200
	defaultSweepParallelism = 4
)

// SchedulerService 调度服务。
// 正确性完全来自持久化事件表与 sweep 的原子认领：
// 定时器、队列任务都只是降低延迟的提醒，丢失或重复均不影响结果。
type SchedulerService struct {
	ruleRepo     repository.RuleRepository
	eventRepo    repository.EventRepository
	stateRepo    repository.ItemStateRepository
	stateService *PriceStateService
	resolver     ScopeResolver
	tags         TagMutator
	nudger       SweepNudger
	batchSize    int
	parallelism  int
}

// NewSchedulerService 创建调度服务
func NewSchedulerService(
	ruleRepo repository.RuleRepository,
	eventRepo repository.EventRepository,
	stateRepo repository.ItemStateRepository,
	stateService *PriceStateService,
	resolver ScopeResolver,
	tags TagMutator,
	nudger SweepNudger,
	batchSize, parallelism int,
) *SchedulerService {
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}
	if parallelism <= 0 {
		parallelism = defaultSweepParallelism
	}
	return &SchedulerService{
		ruleRepo:     ruleRepo,
		eventRepo:    eventRepo,
		stateRepo:    stateRepo,
		stateService: stateService,
		resolver:     resolver,
		tags:         tags,
		nudger:       nudger,
		batchSize:    batchSize,
		parallelism:  parallelism,
	}
}

// SweepResult 单次 sweep 的执行统计
type SweepResult struct {
	Due     int `json:"due"`
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// UpsertSchedule 按规则当前的时间窗口重建调度事件。
// 先取消全部待执行事件再重新创建，规则编辑后不会留下陈旧触发。
// 起始时间已过的规则立即生成到期事件，由下一次 sweep 激活。
func (s *SchedulerService) UpsertSchedule(rule *models.DiscountRule) error {
	if rule == nil {
		return ErrRuleNotFound
	}
	now := time.Now()
	if _, err := s.eventRepo.CancelPendingByRule(rule.ID, now); err != nil {
		return err
	}

	if !rule.HasSchedule() {
		if rule.Status == constants.RuleStatusScheduled {
			rule.Status = constants.RuleStatusDraft
			return s.ruleRepo.UpdateStatus(rule.ID, constants.RuleStatusDraft)
		}
		return nil
	}

	var activateAt *time.Time
	if rule.Status != constants.RuleStatusActive && rule.Status != constants.RuleStatusCompleted {
		fireAt := *rule.StartAt
		if fireAt.Before(now) {
			fireAt = now
		}
		if err := s.eventRepo.Create(&models.ScheduledEvent{
			RuleID: rule.ID,
			Kind:   constants.EventKindActivate,
			FireAt: fireAt,
		}); err != nil {
			return err
		}
		if rule.Status == constants.RuleStatusDraft {
			rule.Status = constants.RuleStatusScheduled
			if err := s.ruleRepo.UpdateStatus(rule.ID, constants.RuleStatusScheduled); err != nil {
				return err
			}
		}
		s.nudge(fireAt)
		activateAt = &fireAt
	}

	if rule.EndAt != nil && rule.Status != constants.RuleStatusCompleted {
		// 结束事件不得早于同批生成的激活事件：整个窗口已过期时
		// 两者都钳到 now，sweep 仍按先激活后结束的顺序执行
		fireAt := *rule.EndAt
		if activateAt != nil && fireAt.Before(*activateAt) {
			fireAt = *activateAt
		}
		if err := s.eventRepo.Create(&models.ScheduledEvent{
			RuleID: rule.ID,
			Kind:   constants.EventKindDeactivate,
			FireAt: fireAt,
		}); err != nil {
			return err
		}
		s.nudge(fireAt)
	}
	return nil
}

// Sweep 扫描全部到期未执行的事件并逐个认领执行。
// 同一规则的事件按触发顺序串行，不同规则之间并行；
// 认领失败（被并发 sweep 抢先或已取消）的事件直接跳过，保证每个事件至多生效一次。
func (s *SchedulerService) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult
	events, err := s.eventRepo.ListDue(now, s.batchSize)
	if err != nil {
		return result, err
	}
	result.Due = len(events)
	if len(events) == 0 {
		return result, nil
	}

	// ListDue 已按 fire_at 排序，按规则分组后组内顺序即触发顺序
	groups := make(map[uint][]models.ScheduledEvent)
	order := make([]uint, 0)
	for _, event := range events {
		if _, ok := groups[event.RuleID]; !ok {
			order = append(order, event.RuleID)
		}
		groups[event.RuleID] = append(groups[event.RuleID], event)
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, ruleID := range order {
		ruleEvents := groups[ruleID]
		g.Go(func() error {
			for _, event := range ruleEvents {
				if err := ctx.Err(); err != nil {
					return err
				}
				claimed, err := s.eventRepo.Claim(event.ID, now)
				if err != nil {
					return err
				}
				if !claimed {
					mu.Lock()
					result.Skipped++
					mu.Unlock()
					continue
				}
				if err := s.applyEvent(&event); err != nil {
					logger.Errorw("scheduler_event_failed",
						"event_id", event.ID, "rule_id", event.RuleID, "kind", event.Kind, "error", err)
					mu.Lock()
					result.Failed++
					mu.Unlock()
					continue
				}
				mu.Lock()
				result.Applied++
				mu.Unlock()
			}
			return nil
		})
	}
	err = g.Wait()

	logger.Infow("scheduler_sweep_done",
		"due", result.Due, "applied", result.Applied, "skipped", result.Skipped, "failed", result.Failed)
	return result, err
}

// applyEvent 执行单个已认领的事件
func (s *SchedulerService) applyEvent(event *models.ScheduledEvent) error {
	rule, err := s.ruleRepo.GetByID(event.RuleID)
	if err != nil {
		return err
	}
	if rule == nil {
		// 规则已删除，事件已认领，直接吞掉
		logger.Warnw("scheduler_rule_missing", "event_id", event.ID, "rule_id", event.RuleID)
		return nil
	}

	switch event.Kind {
	case constants.EventKindActivate:
		return s.activateRule(rule)
	case constants.EventKindDeactivate:
		return s.deactivateRule(rule)
	default:
		logger.Warnw("scheduler_unknown_event_kind", "event_id", event.ID, "kind", event.Kind)
		return nil
	}
}

// activateRule 把规则应用到当前范围内的全部商品并打上激活标签
func (s *SchedulerService) activateRule(rule *models.DiscountRule) error {
	itemIDs, err := s.resolver.ResolveItems(rule.ScopeType, rule.ScopeRefID)
	if err != nil {
		return err
	}

	for _, itemID := range itemIDs {
		if _, err := s.stateService.ApplyRule(itemID, rule); err != nil {
			// 本地状态已提交时推送失败只告警，等待重推
			if errors.Is(err, ErrSinkFailure) {
				logger.Warnw("scheduler_activate_push_failed", "rule_id", rule.ID, "item_id", itemID, "error", err)
				continue
			}
			logger.Errorw("scheduler_activate_item_failed", "rule_id", rule.ID, "item_id", itemID, "error", err)
			continue
		}
		s.mutateTags(itemID, rule.TagsAdd, rule.TagsRemove, true)
	}

	if rule.Status != constants.RuleStatusActive {
		if err := s.ruleRepo.UpdateStatus(rule.ID, constants.RuleStatusActive); err != nil {
			return err
		}
		rule.Status = constants.RuleStatusActive
	}
	logger.Infow("scheduler_rule_activated", "rule_id", rule.ID, "items", len(itemIDs))
	return nil
}

// deactivateRule 把规则从持有它的全部商品上移除并还原标签。
// 范围解析结果与状态表中实际持有该规则的商品取并集，
// 激活后移出范围的商品同样会被清理，不留残余折扣。
func (s *SchedulerService) deactivateRule(rule *models.DiscountRule) error {
	itemIDs, err := s.resolver.ResolveItems(rule.ScopeType, rule.ScopeRefID)
	if err != nil {
		return err
	}
	holding, err := s.stateRepo.ListByActiveRule(rule.ID)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(itemIDs)+len(holding))
	targets := make([]string, 0, len(itemIDs)+len(holding))
	for _, id := range itemIDs {
		if !seen[id] {
			seen[id] = true
			targets = append(targets, id)
		}
	}
	for _, state := range holding {
		if !seen[state.ItemID] {
			seen[state.ItemID] = true
			targets = append(targets, state.ItemID)
		}
	}

	for _, itemID := range targets {
		if _, err := s.stateService.RemoveRule(itemID, rule.ID); err != nil {
			if errors.Is(err, ErrItemStateNotFound) {
				continue
			}
			if errors.Is(err, ErrSinkFailure) {
				logger.Warnw("scheduler_deactivate_push_failed", "rule_id", rule.ID, "item_id", itemID, "error", err)
				continue
			}
			logger.Errorw("scheduler_deactivate_item_failed", "rule_id", rule.ID, "item_id", itemID, "error", err)
			continue
		}
		s.mutateTags(itemID, rule.TagsAdd, rule.TagsRemove, false)
	}

	if err := s.ruleRepo.UpdateStatus(rule.ID, constants.RuleStatusCompleted); err != nil {
		return err
	}
	rule.Status = constants.RuleStatusCompleted
	logger.Infow("scheduler_rule_deactivated", "rule_id", rule.ID, "items", len(targets))
	return nil
}

// mutateTags 激活时添加 tagsAdd，结束时移除 tagsAdd 与 tagsRemove。
// 标签失败只记录告警，不阻断价格流程。
func (s *SchedulerService) mutateTags(itemID string, tagsAdd, tagsRemove []string, activating bool) {
	if s.tags == nil {
		return
	}
	if activating {
		if len(tagsAdd) > 0 {
			if err := s.tags.AddTags(itemID, tagsAdd); err != nil {
				logger.Warnw("scheduler_add_tags_failed", "item_id", itemID, "error", err)
			}
		}
		return
	}
	toRemove := append(append([]string{}, tagsAdd...), tagsRemove...)
	if len(toRemove) > 0 {
		if err := s.tags.RemoveTags(itemID, toRemove); err != nil {
			logger.Warnw("scheduler_remove_tags_failed", "item_id", itemID, "error", err)
		}
	}
}

// nudge 在触发时间附近安排一次提前 sweep，失败不影响正确性
func (s *SchedulerService) nudge(fireAt time.Time) {
	if s.nudger == nil {
		return
	}
	if err := s.nudger.NudgeSweepAt(fireAt); err != nil {
		logger.Warnw("scheduler_nudge_failed", "fire_at", fireAt, "error", err)
	}
}
