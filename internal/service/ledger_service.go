package service

import (
	"github.com/pricetide/internal/models"
	"github.com/pricetide/internal/repository"
)

// LedgerService 价格流水服务：只追加的历史 + 按流水恢复
type LedgerService struct {
	ledgerRepo   repository.LedgerRepository
	stateService *PriceStateService
}

// NewLedgerService 创建价格流水服务
func NewLedgerService(ledgerRepo repository.LedgerRepository, stateService *PriceStateService) *LedgerService {
	return &LedgerService{
		ledgerRepo:   ledgerRepo,
		stateService: stateService,
	}
}

// RecordChange 追加一条价格变更流水
func (s *LedgerService) RecordChange(itemID string, oldPrice, newPrice models.Money, causeRuleID *uint) (*models.PriceLedgerEntry, error) {
	entry := &models.PriceLedgerEntry{
		ItemID:      itemID,
		OldPrice:    oldPrice,
		NewPrice:    newPrice,
		CauseRuleID: causeRuleID,
	}
	if err := s.ledgerRepo.Append(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// History 获取商品价格流水（最新在前，永不截断）
func (s *LedgerService) History(itemID string, filter repository.LedgerListFilter) ([]models.PriceLedgerEntry, int64, error) {
	return s.ledgerRepo.ListByItem(itemID, filter)
}

// Restore 恢复到指定流水的变更前价格，并追加一条指回该流水的新记录
func (s *LedgerService) Restore(itemID string, entryID uint) (*models.PriceLedgerEntry, error) {
	target, err := s.ledgerRepo.GetByID(entryID)
	if err != nil {
		return nil, err
	}
	if target == nil || target.ItemID != itemID {
		return nil, ErrEntryNotFound
	}
	return s.stateService.RestoreTo(itemID, target.OldPrice, &entryID, false)
}

// RestoreToOriginal 恢复商品原价并清空生效规则栈
func (s *LedgerService) RestoreToOriginal(itemID string) (*models.PriceLedgerEntry, error) {
	state, err := s.stateService.Get(itemID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrItemStateNotFound
	}
	return s.stateService.RestoreTo(itemID, state.OriginalPrice, nil, true)
}
