package repository

import (
	"errors"
	"strconv"

	"github.com/pricetide/internal/models"

	"gorm.io/gorm"
)

// ItemStateRepository 商品价格状态数据访问接口
type ItemStateRepository interface {
	GetByItemID(itemID string) (*models.ItemPriceState, error)
	ListByActiveRule(ruleID uint) ([]models.ItemPriceState, error)
	Create(state *models.ItemPriceState) error
	Update(state *models.ItemPriceState) error
	WithTx(tx *gorm.DB) *GormItemStateRepository
}

// GormItemStateRepository GORM 实现
type GormItemStateRepository struct {
	db *gorm.DB
}

// NewItemStateRepository 创建商品价格状态仓库
func NewItemStateRepository(db *gorm.DB) *GormItemStateRepository {
	return &GormItemStateRepository{db: db}
}

// WithTx 绑定事务
func (r *GormItemStateRepository) WithTx(tx *gorm.DB) *GormItemStateRepository {
	if tx == nil {
		return r
	}
	return &GormItemStateRepository{db: tx}
}

// GetByItemID 根据商品标识获取状态
func (r *GormItemStateRepository) GetByItemID(itemID string) (*models.ItemPriceState, error) {
	var state models.ItemPriceState
	if err := r.db.Where("item_id = ?", itemID).First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// ListByActiveRule 获取生效规则集中包含指定规则的全部商品状态。
// active_rule_ids 以 JSON 存储，这里在数据库侧做粗过滤，精确判断交给调用方。
func (r *GormItemStateRepository) ListByActiveRule(ruleID uint) ([]models.ItemPriceState, error) {
	var states []models.ItemPriceState
	if err := r.db.Where("active_rule_ids LIKE ?", "%"+ruleIDToken(ruleID)+"%").Find(&states).Error; err != nil {
		return nil, err
	}
	result := make([]models.ItemPriceState, 0, len(states))
	for _, state := range states {
		if state.ActiveRuleIDs.Contains(ruleID) {
			result = append(result, state)
		}
	}
	return result, nil
}

// Create 创建商品价格状态
func (r *GormItemStateRepository) Create(state *models.ItemPriceState) error {
	return r.db.Create(state).Error
}

// Update 更新商品价格状态
func (r *GormItemStateRepository) Update(state *models.ItemPriceState) error {
	return r.db.Save(state).Error
}

func ruleIDToken(ruleID uint) string {
	return strconv.FormatUint(uint64(ruleID), 10)
}
