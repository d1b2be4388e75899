package service

import (
	"errors"
	"time"

	"github.com/pricetide/internal/constants"
	"github.com/pricetide/internal/logger"
	"github.com/pricetide/internal/models"
	"github.com/pricetide/internal/repository"
)

// RuleAdminService 折扣规则管理服务
type RuleAdminService struct {
	ruleRepo     repository.RuleRepository
	eventRepo    repository.EventRepository
	stateRepo    repository.ItemStateRepository
	engine       *RuleEngine
	scheduler    *SchedulerService
	stateService *PriceStateService
}

// NewRuleAdminService 创建折扣规则管理服务
func NewRuleAdminService(
	ruleRepo repository.RuleRepository,
	eventRepo repository.EventRepository,
	stateRepo repository.ItemStateRepository,
	engine *RuleEngine,
	scheduler *SchedulerService,
	stateService *PriceStateService,
) *RuleAdminService {
	return &RuleAdminService{
		ruleRepo:     ruleRepo,
		eventRepo:    eventRepo,
		stateRepo:    stateRepo,
		engine:       engine,
		scheduler:    scheduler,
		stateService: stateService,
	}
}

// RuleInput 创建/更新规则的输入
type RuleInput struct {
	Name       string             `json:"name" binding:"required"`
	Kind       string             `json:"kind" binding:"required"`
	Value      models.Money       `json:"value"`
	Formula    string             `json:"formula"`
	ScopeType  string             `json:"scope_type" binding:"required"`
	ScopeRefID string             `json:"scope_ref_id" binding:"required"`
	StartAt    *time.Time         `json:"start_at"`
	EndAt      *time.Time         `json:"end_at"`
	Timezone   string             `json:"timezone"`
	TagsAdd    models.StringArray `json:"tags_add"`
	TagsRemove models.StringArray `json:"tags_remove"`
}

func (in *RuleInput) apply(rule *models.DiscountRule) {
	rule.Name = in.Name
	rule.Kind = in.Kind
	rule.Value = in.Value
	rule.Formula = in.Formula
	rule.ScopeType = in.ScopeType
	rule.ScopeRefID = in.ScopeRefID
	rule.StartAt = in.StartAt
	rule.EndAt = in.EndAt
	if in.Timezone != "" {
		rule.Timezone = in.Timezone
	}
	rule.TagsAdd = in.TagsAdd
	rule.TagsRemove = in.TagsRemove
}

// Create 创建规则。无调度窗口的规则保持 draft，
// 带窗口的规则由 UpsertSchedule 生成事件并转入 scheduled。
func (s *RuleAdminService) Create(input *RuleInput) (*models.DiscountRule, error) {
	rule := &models.DiscountRule{
		Timezone: "UTC",
		Status:   constants.RuleStatusDraft,
	}
	input.apply(rule)

	if errs := s.engine.ValidateRule(rule); len(errs) > 0 {
		return nil, errs
	}
	if err := s.ruleRepo.Create(rule); err != nil {
		return nil, err
	}
	if err := s.scheduler.UpsertSchedule(rule); err != nil {
		return nil, err
	}
	logger.Infow("rule_created", "rule_id", rule.ID, "kind", rule.Kind, "status", rule.Status)
	return rule, nil
}

// Update 更新规则并重建调度事件。
// 规则已激活时按新定义对持有它的全部商品从原价重算。
func (s *RuleAdminService) Update(id uint, input *RuleInput) (*models.DiscountRule, error) {
	rule, err := s.ruleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}

	input.apply(rule)
	if errs := s.engine.ValidateRule(rule); len(errs) > 0 {
		return nil, errs
	}
	if err := s.ruleRepo.Update(rule); err != nil {
		return nil, err
	}
	if err := s.scheduler.UpsertSchedule(rule); err != nil {
		return nil, err
	}

	if rule.Status == constants.RuleStatusActive {
		if err := s.recomputeHolders(rule.ID); err != nil {
			return nil, err
		}
	}
	logger.Infow("rule_updated", "rule_id", rule.ID, "status", rule.Status)
	return rule, nil
}

// Delete 删除规则：取消全部待执行事件；已激活时先从每个商品上移除，
// 等价于立即结束折扣，随后软删除。
func (s *RuleAdminService) Delete(id uint) error {
	rule, err := s.ruleRepo.GetByID(id)
	if err != nil {
		return err
	}
	if rule == nil {
		return ErrRuleNotFound
	}

	if _, err := s.eventRepo.CancelPendingByRule(rule.ID, time.Now()); err != nil {
		return err
	}
	if rule.Status == constants.RuleStatusActive {
		if err := s.scheduler.deactivateRule(rule); err != nil {
			return err
		}
	}
	if err := s.ruleRepo.Delete(rule.ID); err != nil {
		return err
	}
	logger.Infow("rule_deleted", "rule_id", rule.ID)
	return nil
}

// Get 获取规则
func (s *RuleAdminService) Get(id uint) (*models.DiscountRule, error) {
	rule, err := s.ruleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}
	return rule, nil
}

// List 获取规则列表
func (s *RuleAdminService) List(filter repository.RuleListFilter) ([]models.DiscountRule, int64, error) {
	return s.ruleRepo.List(filter)
}

// recomputeHolders 对持有规则的全部商品按当前生效栈从原价重算
func (s *RuleAdminService) recomputeHolders(ruleID uint) error {
	states, err := s.stateRepo.ListByActiveRule(ruleID)
	if err != nil {
		return err
	}
	causeID := ruleID
	for _, state := range states {
		if _, err := s.stateService.Recompute(state.ItemID, &causeID); err != nil {
			if errors.Is(err, ErrSinkFailure) {
				logger.Warnw("rule_recompute_push_failed", "rule_id", ruleID, "item_id", state.ItemID, "error", err)
				continue
			}
			return err
		}
	}
	return nil
}
