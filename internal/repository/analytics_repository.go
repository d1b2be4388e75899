package repository

import (
	"github.com/pricetide/internal/models"

	"gorm.io/gorm"
)

// AnalyticsRepository 折扣统计数据访问接口。
// 全部指标由 discount_rules 与 price_ledger_entries 聚合得出。
type AnalyticsRepository interface {
	RuleCountsByStatus() (map[string]int64, error)
	RuleCountsByKind() (map[string]int64, error)
	RuleCountsByScopeType() (map[string]int64, error)
	DiscountedItemCount() (int64, error)
	LedgerEntryCount() (int64, error)
	RestoreEntryCount() (int64, error)
	AverageDiscountPercent() (float64, error)
}

// GormAnalyticsRepository GORM 实现
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository 创建折扣统计仓库
func NewAnalyticsRepository(db *gorm.DB) *GormAnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

type labelCount struct {
	Label string
	Count int64
}

// ruleCountsBy 按指定列对规则分组计数（列名为内部常量，不接受外部输入）
func (r *GormAnalyticsRepository) ruleCountsBy(column string) (map[string]int64, error) {
	var rows []labelCount
	if err := r.db.Model(&models.DiscountRule{}).
		Select(column + " as label, count(*) as count").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Label] = row.Count
	}
	return counts, nil
}

// RuleCountsByStatus 各状态的规则数
func (r *GormAnalyticsRepository) RuleCountsByStatus() (map[string]int64, error) {
	return r.ruleCountsBy("status")
}

// RuleCountsByKind 各折扣类型的规则数
func (r *GormAnalyticsRepository) RuleCountsByKind() (map[string]int64, error) {
	return r.ruleCountsBy("kind")
}

// RuleCountsByScopeType 各适用范围类型的规则数
func (r *GormAnalyticsRepository) RuleCountsByScopeType() (map[string]int64, error) {
	return r.ruleCountsBy("scope_type")
}

// DiscountedItemCount 当前有折扣生效的商品数
func (r *GormAnalyticsRepository) DiscountedItemCount() (int64, error) {
	var count int64
	err := r.db.Model(&models.ItemPriceState{}).
		Where("active_rule_ids <> ?", "[]").
		Count(&count).Error
	return count, err
}

// LedgerEntryCount 价格流水总条数
func (r *GormAnalyticsRepository) LedgerEntryCount() (int64, error) {
	var count int64
	err := r.db.Model(&models.PriceLedgerEntry{}).Count(&count).Error
	return count, err
}

// RestoreEntryCount 恢复操作产生的流水条数
func (r *GormAnalyticsRepository) RestoreEntryCount() (int64, error) {
	var count int64
	err := r.db.Model(&models.PriceLedgerEntry{}).
		Where("restored_from_entry_id IS NOT NULL").
		Count(&count).Error
	return count, err
}

// AverageDiscountPercent 降价流水的平均折扣幅度（百分比）
func (r *GormAnalyticsRepository) AverageDiscountPercent() (float64, error) {
	row := struct{ Avg float64 }{}
	err := r.db.Model(&models.PriceLedgerEntry{}).
		Select("coalesce(avg((old_price - new_price) * 100.0 / old_price), 0) as avg").
		Where("old_price > 0 AND new_price < old_price").
		Scan(&row).Error
	return row.Avg, err
}
