package service

import (
	"github.com/pricetide/internal/repository"

	"github.com/shopspring/decimal"
)

// AnalyticsService 折扣统计服务
type AnalyticsService struct {
	analyticsRepo repository.AnalyticsRepository
}

// NewAnalyticsService 创建折扣统计服务
func NewAnalyticsService(analyticsRepo repository.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{analyticsRepo: analyticsRepo}
}

// DiscountSummary 折扣运行概览
type DiscountSummary struct {
	RulesTotal             int64            `json:"rules_total"`              // 规则总数
	RulesByStatus          map[string]int64 `json:"rules_by_status"`          // 各状态规则数
	RulesByKind            map[string]int64 `json:"rules_by_kind"`            // 各类型规则数
	RulesByScopeType       map[string]int64 `json:"rules_by_scope_type"`      // 各范围类型规则数
	ItemsDiscounted        int64            `json:"items_discounted"`         // 当前有折扣生效的商品数
	LedgerEntries          int64            `json:"ledger_entries"`           // 价格流水总条数
	RestoreEntries         int64            `json:"restore_entries"`          // 恢复操作条数
	AverageDiscountPercent float64          `json:"average_discount_percent"` // 降价流水平均折扣幅度
}

// Summary 汇总规则与价格流水的运行概览
func (s *AnalyticsService) Summary() (*DiscountSummary, error) {
	byStatus, err := s.analyticsRepo.RuleCountsByStatus()
	if err != nil {
		return nil, err
	}
	byKind, err := s.analyticsRepo.RuleCountsByKind()
	if err != nil {
		return nil, err
	}
	byScope, err := s.analyticsRepo.RuleCountsByScopeType()
	if err != nil {
		return nil, err
	}
	itemsDiscounted, err := s.analyticsRepo.DiscountedItemCount()
	if err != nil {
		return nil, err
	}
	ledgerEntries, err := s.analyticsRepo.LedgerEntryCount()
	if err != nil {
		return nil, err
	}
	restoreEntries, err := s.analyticsRepo.RestoreEntryCount()
	if err != nil {
		return nil, err
	}
	avgPercent, err := s.analyticsRepo.AverageDiscountPercent()
	if err != nil {
		return nil, err
	}

	var total int64
	for _, count := range byStatus {
		total += count
	}
	return &DiscountSummary{
		RulesTotal:             total,
		RulesByStatus:          byStatus,
		RulesByKind:            byKind,
		RulesByScopeType:       byScope,
		ItemsDiscounted:        itemsDiscounted,
		LedgerEntries:          ledgerEntries,
		RestoreEntries:         restoreEntries,
		AverageDiscountPercent: decimal.NewFromFloat(avgPercent).Round(2).InexactFloat64(),
	}, nil
}
