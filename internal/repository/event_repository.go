package repository

import (
	"errors"
	"time"

	"github.com/pricetide/internal/models"

	"gorm.io/gorm"
)

// EventRepository 调度事件数据访问接口
type EventRepository interface {
	GetByID(id uint) (*models.ScheduledEvent, error)
	Create(event *models.ScheduledEvent) error
	ListDue(now time.Time, limit int) ([]models.ScheduledEvent, error)
	ListPendingByRule(ruleID uint) ([]models.ScheduledEvent, error)
	List(filter EventListFilter) ([]models.ScheduledEvent, int64, error)
	Claim(id uint, now time.Time) (bool, error)
	CancelPendingByRule(ruleID uint, now time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormEventRepository
}

// GormEventRepository GORM 实现
type GormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建调度事件仓库
func NewEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// WithTx 绑定事务
func (r *GormEventRepository) WithTx(tx *gorm.DB) *GormEventRepository {
	if tx == nil {
		return r
	}
	return &GormEventRepository{db: tx}
}

// GetByID 根据ID获取事件
func (r *GormEventRepository) GetByID(id uint) (*models.ScheduledEvent, error) {
	var event models.ScheduledEvent
	if err := r.db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// Create 创建事件
func (r *GormEventRepository) Create(event *models.ScheduledEvent) error {
	return r.db.Create(event).Error
}

// ListDue 获取到期且未执行的事件，按触发时间先后排序
func (r *GormEventRepository) ListDue(now time.Time, limit int) ([]models.ScheduledEvent, error) {
	var events []models.ScheduledEvent
	query := r.db.Where("fire_at <= ? AND applied_at IS NULL", now).Order("fire_at asc, id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// ListPendingByRule 获取规则待执行的事件
func (r *GormEventRepository) ListPendingByRule(ruleID uint) ([]models.ScheduledEvent, error) {
	var events []models.ScheduledEvent
	if err := r.db.Where("rule_id = ? AND applied_at IS NULL", ruleID).Order("fire_at asc, id asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// List 获取事件列表
func (r *GormEventRepository) List(filter EventListFilter) ([]models.ScheduledEvent, int64, error) {
	var events []models.ScheduledEvent
	query := r.db.Model(&models.ScheduledEvent{})

	if filter.RuleID != 0 {
		query = query.Where("rule_id = ?", filter.RuleID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Pending != nil {
		if *filter.Pending {
			query = query.Where("applied_at IS NULL")
		} else {
			query = query.Where("applied_at IS NOT NULL")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// Claim 原子认领事件：只在 applied_at 仍为空时写入执行时间。
// 返回 false 表示已被并发的另一次 sweep 认领（或已取消）。
func (r *GormEventRepository) Claim(id uint, now time.Time) (bool, error) {
	result := r.db.Model(&models.ScheduledEvent{}).
		Where("id = ? AND applied_at IS NULL", id).
		Update("applied_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CancelPendingByRule 取消规则的全部待执行事件：
// 标记为已执行且 canceled=true（执行但无副作用），使 sweep 无法再认领。
func (r *GormEventRepository) CancelPendingByRule(ruleID uint, now time.Time) (int64, error) {
	result := r.db.Model(&models.ScheduledEvent{}).
		Where("rule_id = ? AND applied_at IS NULL", ruleID).
		Updates(map[string]interface{}{"applied_at": now, "canceled": true})
	return result.RowsAffected, result.Error
}
