package repository

import (
	"errors"

	"github.com/pricetide/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository 价格流水数据访问接口（只追加）
type LedgerRepository interface {
	Append(entry *models.PriceLedgerEntry) error
	GetByID(id uint) (*models.PriceLedgerEntry, error)
	ListByItem(itemID string, filter LedgerListFilter) ([]models.PriceLedgerEntry, int64, error)
	WithTx(tx *gorm.DB) *GormLedgerRepository
}

// GormLedgerRepository GORM 实现
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建价格流水仓库
func NewLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLedgerRepository) WithTx(tx *gorm.DB) *GormLedgerRepository {
	if tx == nil {
		return r
	}
	return &GormLedgerRepository{db: tx}
}

// Append 追加一条流水
func (r *GormLedgerRepository) Append(entry *models.PriceLedgerEntry) error {
	return r.db.Create(entry).Error
}

// GetByID 根据ID获取流水
func (r *GormLedgerRepository) GetByID(id uint) (*models.PriceLedgerEntry, error) {
	var entry models.PriceLedgerEntry
	if err := r.db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// ListByItem 获取商品的价格流水，按时间倒序（最新在前）
func (r *GormLedgerRepository) ListByItem(itemID string, filter LedgerListFilter) ([]models.PriceLedgerEntry, int64, error) {
	var entries []models.PriceLedgerEntry
	query := r.db.Model(&models.PriceLedgerEntry{}).Where("item_id = ?", itemID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
