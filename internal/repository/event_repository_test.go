package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/pricetide/internal/constants"
	"github.com/pricetide/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupEventRepoTest(t *testing.T) *GormEventRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:event_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.ScheduledEvent{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewEventRepository(db)
}

func TestEventClaimOnlyOnce(t *testing.T) {
	repo := setupEventRepoTest(t)
	event := &models.ScheduledEvent{
		RuleID: 1,
		Kind:   constants.EventKindActivate,
		FireAt: time.Now().Add(-time.Minute),
	}
	if err := repo.Create(event); err != nil {
		t.Fatalf("create event failed: %v", err)
	}

	now := time.Now()
	first, err := repo.Claim(event.ID, now)
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if !first {
		t.Fatal("first claim should succeed")
	}
	second, err := repo.Claim(event.ID, now)
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if second {
		t.Fatal("second claim should lose")
	}
}

func TestEventListDueExcludesAppliedAndFuture(t *testing.T) {
	repo := setupEventRepoTest(t)
	now := time.Now()

	due := &models.ScheduledEvent{RuleID: 1, Kind: constants.EventKindActivate, FireAt: now.Add(-time.Hour)}
	future := &models.ScheduledEvent{RuleID: 2, Kind: constants.EventKindActivate, FireAt: now.Add(time.Hour)}
	for _, e := range []*models.ScheduledEvent{due, future} {
		if err := repo.Create(e); err != nil {
			t.Fatalf("create event failed: %v", err)
		}
	}
	if ok, err := repo.Claim(due.ID, now); err != nil || !ok {
		t.Fatalf("claim failed: ok=%v err=%v", ok, err)
	}

	events, err := repo.ListDue(now, 0)
	if err != nil {
		t.Fatalf("list due failed: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no due events, got %d", len(events))
	}
}

func TestEventCancelPendingByRule(t *testing.T) {
	repo := setupEventRepoTest(t)
	now := time.Now()

	activate := &models.ScheduledEvent{RuleID: 7, Kind: constants.EventKindActivate, FireAt: now.Add(-time.Minute)}
	deactivate := &models.ScheduledEvent{RuleID: 7, Kind: constants.EventKindDeactivate, FireAt: now.Add(time.Hour)}
	for _, e := range []*models.ScheduledEvent{activate, deactivate} {
		if err := repo.Create(e); err != nil {
			t.Fatalf("create event failed: %v", err)
		}
	}

	count, err := repo.CancelPendingByRule(7, now)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 canceled events, got %d", count)
	}

	// 取消后 sweep 无法再认领
	if ok, err := repo.Claim(activate.ID, now); err != nil || ok {
		t.Fatalf("claim after cancel should lose: ok=%v err=%v", ok, err)
	}

	got, err := repo.GetByID(activate.ID)
	if err != nil {
		t.Fatalf("get event failed: %v", err)
	}
	if got == nil || !got.Canceled || got.AppliedAt == nil {
		t.Fatalf("unexpected event state: %+v", got)
	}
}
