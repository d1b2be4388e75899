package service

import (
	"fmt"

	"github.com/pricetide/internal/cache"
	"github.com/pricetide/internal/models"
	"github.com/pricetide/internal/repository"

	"gorm.io/gorm"
)

// PriceStateService 商品价格状态服务。
// 所有变更按商品ID互斥，状态与流水在同一事务内提交，
// 现价永远由原价沿当前生效规则栈重算得出。
type PriceStateService struct {
	db         *gorm.DB
	stateRepo  repository.ItemStateRepository
	ruleRepo   repository.RuleRepository
	ledgerRepo repository.LedgerRepository
	engine     *RuleEngine
	source     PriceSource
	sink       PriceSink
	locks      *itemLockSet
}

// NewPriceStateService 创建商品价格状态服务
func NewPriceStateService(
	db *gorm.DB,
	stateRepo repository.ItemStateRepository,
	ruleRepo repository.RuleRepository,
	ledgerRepo repository.LedgerRepository,
	engine *RuleEngine,
	source PriceSource,
	sink PriceSink,
) *PriceStateService {
	return &PriceStateService{
		db:         db,
		stateRepo:  stateRepo,
		ruleRepo:   ruleRepo,
		ledgerRepo: ledgerRepo,
		engine:     engine,
		source:     source,
		sink:       sink,
		locks:      newItemLockSet(),
	}
}

// withItemLock 本进程商品锁 + 可选的跨进程 Redis 锁
func (s *PriceStateService) withItemLock(itemID string, fn func() error) error {
	unlock := s.locks.Lock(itemID)
	defer unlock()
	return cache.WithItemLock(itemID, fn)
}

// GetOrInit 获取商品价格状态；首次调用以 observedPrice 固化原价，之后原价不可变
func (s *PriceStateService) GetOrInit(itemID string, observedPrice models.Money) (*models.ItemPriceState, error) {
	var state *models.ItemPriceState
	err := s.withItemLock(itemID, func() error {
		var innerErr error
		state, innerErr = s.getOrInitLocked(itemID, &observedPrice)
		return innerErr
	})
	return state, err
}

// Get 获取商品价格状态（不存在时返回 nil）
func (s *PriceStateService) Get(itemID string) (*models.ItemPriceState, error) {
	return s.stateRepo.GetByItemID(itemID)
}

func (s *PriceStateService) getOrInitLocked(itemID string, observed *models.Money) (*models.ItemPriceState, error) {
	state, err := s.stateRepo.GetByItemID(itemID)
	if err != nil {
		return nil, err
	}
	if state != nil {
		return state, nil
	}

	price := models.Money{}
	if observed != nil {
		price = *observed
	} else {
		if s.source == nil {
			return nil, ErrItemStateNotFound
		}
		price, err = s.source.CurrentPrice(itemID)
		if err != nil {
			return nil, err
		}
	}

	state = &models.ItemPriceState{
		ItemID:        itemID,
		OriginalPrice: price,
		CurrentPrice:  price,
		ActiveRuleIDs: models.UintArray{},
	}
	if err := s.stateRepo.Create(state); err != nil {
		return nil, err
	}
	return state, nil
}

// ApplyRule 把规则加入商品的生效栈（幂等），从原价全量重算现价并记录流水
func (s *PriceStateService) ApplyRule(itemID string, rule *models.DiscountRule) (models.Money, error) {
	if rule == nil {
		return models.Money{}, ErrRuleNotFound
	}
	var result models.Money
	err := s.withItemLock(itemID, func() error {
		state, err := s.getOrInitLocked(itemID, nil)
		if err != nil {
			return err
		}
		if state.ActiveRuleIDs.Contains(rule.ID) {
			result = state.CurrentPrice
			return nil
		}

		activeIDs := append(append(models.UintArray{}, state.ActiveRuleIDs...), rule.ID)
		rules, err := s.loadOrderedRules(activeIDs)
		if err != nil {
			return err
		}
		newPrice, err := s.engine.Compute(state.OriginalPrice, rules)
		if err != nil {
			return err
		}

		causeID := rule.ID
		if err := s.commitTransition(state, activeIDs, newPrice, &causeID, nil); err != nil {
			return err
		}
		result = newPrice
		return s.pushPrice(state)
	})
	return result, err
}

// RemoveRule 把规则移出生效栈，对剩余栈重算；栈清空时等价于恢复原价
func (s *PriceStateService) RemoveRule(itemID string, ruleID uint) (models.Money, error) {
	var result models.Money
	err := s.withItemLock(itemID, func() error {
		state, err := s.stateRepo.GetByItemID(itemID)
		if err != nil {
			return err
		}
		if state == nil {
			return ErrItemStateNotFound
		}
		if !state.ActiveRuleIDs.Contains(ruleID) {
			result = state.CurrentPrice
			return nil
		}

		activeIDs := state.ActiveRuleIDs.Without(ruleID)
		newPrice := state.OriginalPrice
		if len(activeIDs) > 0 {
			rules, err := s.loadOrderedRules(activeIDs)
			if err != nil {
				return err
			}
			newPrice, err = s.engine.Compute(state.OriginalPrice, rules)
			if err != nil {
				return err
			}
		}

		if err := s.commitTransition(state, activeIDs, newPrice, nil, nil); err != nil {
			return err
		}
		result = newPrice
		return s.pushPrice(state)
	})
	return result, err
}

// ManualOverride 运营手工改价：直接设置现价，生效规则栈保持不变
func (s *PriceStateService) ManualOverride(itemID string, newPrice models.Money) (*models.PriceLedgerEntry, error) {
	var entry *models.PriceLedgerEntry
	err := s.withItemLock(itemID, func() error {
		state, err := s.getOrInitLocked(itemID, nil)
		if err != nil {
			return err
		}
		entry, err = s.commitTransitionEntry(state, state.ActiveRuleIDs, newPrice, nil, nil)
		if err != nil {
			return err
		}
		return s.pushPrice(state)
	})
	return entry, err
}

// RestoreTo 把现价恢复为指定价格并记录恢复流水；clearRules 为真时同时清空生效栈
func (s *PriceStateService) RestoreTo(itemID string, price models.Money, restoredFromID *uint, clearRules bool) (*models.PriceLedgerEntry, error) {
	var entry *models.PriceLedgerEntry
	err := s.withItemLock(itemID, func() error {
		state, err := s.stateRepo.GetByItemID(itemID)
		if err != nil {
			return err
		}
		if state == nil {
			return ErrItemStateNotFound
		}
		activeIDs := state.ActiveRuleIDs
		if clearRules {
			activeIDs = models.UintArray{}
		}
		entry, err = s.commitTransitionEntry(state, activeIDs, price, nil, restoredFromID)
		if err != nil {
			return err
		}
		return s.pushPrice(state)
	})
	return entry, err
}

// Recompute 按当前生效栈从原价重算（规则定义变更后使用）
func (s *PriceStateService) Recompute(itemID string, causeRuleID *uint) (models.Money, error) {
	var result models.Money
	err := s.withItemLock(itemID, func() error {
		state, err := s.stateRepo.GetByItemID(itemID)
		if err != nil {
			return err
		}
		if state == nil {
			return ErrItemStateNotFound
		}
		newPrice := state.OriginalPrice
		if len(state.ActiveRuleIDs) > 0 {
			rules, err := s.loadOrderedRules(state.ActiveRuleIDs)
			if err != nil {
				return err
			}
			newPrice, err = s.engine.Compute(state.OriginalPrice, rules)
			if err != nil {
				return err
			}
		}
		if err := s.commitTransition(state, state.ActiveRuleIDs, newPrice, causeRuleID, nil); err != nil {
			return err
		}
		result = newPrice
		return s.pushPrice(state)
	})
	return result, err
}

// loadOrderedRules 按生效栈顺序加载规则，已删除的规则跳过
func (s *PriceStateService) loadOrderedRules(ids models.UintArray) ([]models.DiscountRule, error) {
	rules, err := s.ruleRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.DiscountRule, len(rules))
	for _, rule := range rules {
		byID[rule.ID] = rule
	}
	ordered := make([]models.DiscountRule, 0, len(ids))
	for _, id := range ids {
		if rule, ok := byID[id]; ok {
			ordered = append(ordered, rule)
		}
	}
	return ordered, nil
}

// commitTransition 在同一事务内更新状态并追加流水
func (s *PriceStateService) commitTransition(state *models.ItemPriceState, activeIDs models.UintArray, newPrice models.Money, causeRuleID, restoredFromID *uint) error {
	_, err := s.commitTransitionEntry(state, activeIDs, newPrice, causeRuleID, restoredFromID)
	return err
}

func (s *PriceStateService) commitTransitionEntry(state *models.ItemPriceState, activeIDs models.UintArray, newPrice models.Money, causeRuleID, restoredFromID *uint) (*models.PriceLedgerEntry, error) {
	oldPrice := state.CurrentPrice
	oldIDs := state.ActiveRuleIDs
	entry := &models.PriceLedgerEntry{
		ItemID:              state.ItemID,
		OldPrice:            oldPrice,
		NewPrice:            newPrice,
		CauseRuleID:         causeRuleID,
		RestoredFromEntryID: restoredFromID,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		state.ActiveRuleIDs = activeIDs
		state.CurrentPrice = newPrice
		if err := s.stateRepo.WithTx(tx).Update(state); err != nil {
			return err
		}
		return s.ledgerRepo.WithTx(tx).Append(entry)
	})
	if err != nil {
		// 事务回滚后恢复内存对象，避免调用方读到未提交的值
		state.CurrentPrice = oldPrice
		state.ActiveRuleIDs = oldIDs
		return nil, err
	}
	return entry, nil
}

// pushPrice 本地提交后推送外部平台；失败以 ErrSinkFailure 上抛，由调用方重推
func (s *PriceStateService) pushPrice(state *models.ItemPriceState) error {
	if s.sink == nil {
		return nil
	}
	var compareAt *models.Money
	if len(state.ActiveRuleIDs) > 0 {
		original := state.OriginalPrice
		compareAt = &original
	}
	if err := s.sink.Push(state.ItemID, state.CurrentPrice, compareAt); err != nil {
		return fmt.Errorf("%w: %v", ErrSinkFailure, err)
	}
	return nil
}
