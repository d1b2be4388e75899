package repository

import (
	"errors"
	"strings"

	"github.com/pricetide/internal/models"

	"gorm.io/gorm"
)

// RuleRepository 折扣规则数据访问接口
type RuleRepository interface {
	GetByID(id uint) (*models.DiscountRule, error)
	GetByIDs(ids []uint) ([]models.DiscountRule, error)
	Create(rule *models.DiscountRule) error
	Update(rule *models.DiscountRule) error
	UpdateStatus(id uint, status string) error
	Delete(id uint) error
	List(filter RuleListFilter) ([]models.DiscountRule, int64, error)
	WithTx(tx *gorm.DB) *GormRuleRepository
}

// GormRuleRepository GORM 实现
type GormRuleRepository struct {
	db *gorm.DB
}

// NewRuleRepository 创建折扣规则仓库
func NewRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRuleRepository) WithTx(tx *gorm.DB) *GormRuleRepository {
	if tx == nil {
		return r
	}
	return &GormRuleRepository{db: tx}
}

// GetByID 根据ID获取规则
func (r *GormRuleRepository) GetByID(id uint) (*models.DiscountRule, error) {
	var rule models.DiscountRule
	if err := r.db.First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// GetByIDs 批量获取规则（结果顺序不保证，调用方按需重排）
func (r *GormRuleRepository) GetByIDs(ids []uint) ([]models.DiscountRule, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rules []models.DiscountRule
	if err := r.db.Where("id IN ?", ids).Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Create 创建规则
func (r *GormRuleRepository) Create(rule *models.DiscountRule) error {
	return r.db.Create(rule).Error
}

// Update 更新规则
func (r *GormRuleRepository) Update(rule *models.DiscountRule) error {
	return r.db.Save(rule).Error
}

// UpdateStatus 更新规则状态
func (r *GormRuleRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.DiscountRule{}).Where("id = ?", id).Update("status", status).Error
}

// Delete 软删除规则
func (r *GormRuleRepository) Delete(id uint) error {
	return r.db.Delete(&models.DiscountRule{}, id).Error
}

// List 获取规则列表
func (r *GormRuleRepository) List(filter RuleListFilter) ([]models.DiscountRule, int64, error) {
	var rules []models.DiscountRule
	query := r.db.Model(&models.DiscountRule{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.ScopeType != "" {
		query = query.Where("scope_type = ?", filter.ScopeType)
	}
	if filter.ScopeRefID != "" {
		query = query.Where("scope_ref_id = ?", filter.ScopeRefID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&rules).Error; err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}
