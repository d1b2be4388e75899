package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pricetide/internal/constants"
	"github.com/pricetide/internal/models"
	"github.com/pricetide/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// catalogStub 内存版目录桩：范围解析、价格读写、标签都记在 map 里
type catalogStub struct {
	mu      sync.Mutex
	scopes  map[string][]string
	prices  map[string]models.Money
	pushed  map[string]models.Money
	compare map[string]*models.Money
	tags    map[string]map[string]bool
	pushErr error
}

func newCatalogStub() *catalogStub {
	return &catalogStub{
		scopes:  make(map[string][]string),
		prices:  make(map[string]models.Money),
		pushed:  make(map[string]models.Money),
		compare: make(map[string]*models.Money),
		tags:    make(map[string]map[string]bool),
	}
}

func scopeKey(scopeType, scopeRefID string) string {
	return scopeType + "|" + scopeRefID
}

func (s *catalogStub) ResolveItems(scopeType, scopeRefID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.scopes[scopeKey(scopeType, scopeRefID)]...), nil
}

func (s *catalogStub) CurrentPrice(itemID string) (models.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.prices[itemID]
	if !ok {
		return models.Money{}, fmt.Errorf("item %s not in catalog", itemID)
	}
	return price, nil
}

func (s *catalogStub) Push(itemID string, price models.Money, compareAt *models.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pushErr != nil {
		return s.pushErr
	}
	s.pushed[itemID] = price
	s.compare[itemID] = compareAt
	return nil
}

func (s *catalogStub) AddTags(itemID string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tags[itemID] == nil {
		s.tags[itemID] = make(map[string]bool)
	}
	for _, tag := range tags {
		s.tags[itemID][tag] = true
	}
	return nil
}

func (s *catalogStub) RemoveTags(itemID string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tag := range tags {
		delete(s.tags[itemID], tag)
	}
	return nil
}

func (s *catalogStub) hasTag(itemID, tag string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tags[itemID][tag]
}

func (s *catalogStub) pushedPrice(itemID string) (models.Money, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.pushed[itemID]
	return price, ok
}

func (s *catalogStub) pushedCompareAt(itemID string) *models.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compare[itemID]
}

func (s *catalogStub) setPushErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushErr = err
}

type testEnv struct {
	db         *gorm.DB
	ruleRepo   repository.RuleRepository
	stateRepo  repository.ItemStateRepository
	ledgerRepo repository.LedgerRepository
	eventRepo  repository.EventRepository
	engine     *RuleEngine
	stub       *catalogStub
	states     *PriceStateService
	ledger     *LedgerService
	scheduler  *SchedulerService
	admin      *RuleAdminService
	analytics  *AnalyticsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.DiscountRule{},
		&models.ItemPriceState{},
		&models.PriceLedgerEntry{},
		&models.ScheduledEvent{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	env := &testEnv{
		db:         db,
		ruleRepo:   repository.NewRuleRepository(db),
		stateRepo:  repository.NewItemStateRepository(db),
		ledgerRepo: repository.NewLedgerRepository(db),
		eventRepo:  repository.NewEventRepository(db),
		engine:     NewRuleEngine(),
		stub:       newCatalogStub(),
	}
	env.states = NewPriceStateService(db, env.stateRepo, env.ruleRepo, env.ledgerRepo, env.engine, env.stub, env.stub)
	env.ledger = NewLedgerService(env.ledgerRepo, env.states)
	env.scheduler = NewSchedulerService(env.ruleRepo, env.eventRepo, env.stateRepo, env.states, env.stub, env.stub, nil, 0, 1)
	env.admin = NewRuleAdminService(env.ruleRepo, env.eventRepo, env.stateRepo, env.engine, env.scheduler, env.states)
	env.analytics = NewAnalyticsService(repository.NewAnalyticsRepository(db))
	return env
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q failed: %v", value, err)
	}
	return parsed
}

func money(t *testing.T, value string) models.Money {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse money %q failed: %v", value, err)
	}
	return models.NewMoneyFromDecimal(d)
}

func (env *testEnv) mustCreateRule(t *testing.T, rule *models.DiscountRule) *models.DiscountRule {
	t.Helper()
	if rule.Status == "" {
		rule.Status = constants.RuleStatusDraft
	}
	if rule.Timezone == "" {
		rule.Timezone = "UTC"
	}
	if err := env.ruleRepo.Create(rule); err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	return rule
}

func (env *testEnv) ledgerCount(t *testing.T, itemID string) int64 {
	t.Helper()
	_, total, err := env.ledgerRepo.ListByItem(itemID, repository.LedgerListFilter{})
	if err != nil {
		t.Fatalf("list ledger failed: %v", err)
	}
	return total
}
