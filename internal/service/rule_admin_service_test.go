package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pricetide/internal/constants"
	"github.com/pricetide/internal/models"
	"github.com/pricetide/internal/repository"
)

func TestCreateRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.admin.Create(&RuleInput{
		Name: "too much", Kind: constants.RuleKindPercentage, Value: money(t, "120"),
		ScopeType: constants.ScopeProduct, ScopeRefID: "item-1",
	})
	if !errors.Is(err, ErrRuleInvalid) {
		t.Fatalf("want ErrRuleInvalid got %v", err)
	}
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		t.Fatalf("want field-level validation errors got %v", err)
	}

	// 校验失败时不落库
	rules, total, listErr := env.admin.List(repository.RuleListFilter{})
	if listErr != nil {
		t.Fatalf("list failed: %v", listErr)
	}
	if total != 0 || len(rules) != 0 {
		t.Fatalf("invalid rule must not be persisted, got %d", total)
	}
}

func TestCreateWithWindowSchedules(t *testing.T) {
	env := newTestEnv(t)
	start := time.Now().Add(time.Hour)
	end := time.Now().Add(2 * time.Hour)

	rule, err := env.admin.Create(&RuleInput{
		Name: "p20", Kind: constants.RuleKindPercentage, Value: money(t, "20"),
		ScopeType: constants.ScopeCollection, ScopeRefID: "col-1",
		StartAt: &start, EndAt: &end,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rule.Status != constants.RuleStatusScheduled {
		t.Fatalf("status want scheduled got %s", rule.Status)
	}
	if rule.Timezone != "UTC" {
		t.Fatalf("timezone default want UTC got %s", rule.Timezone)
	}
	pending, err := env.eventRepo.ListPendingByRule(rule.ID)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending events want 2 got %d", len(pending))
	}
}

func TestCreateWithoutWindowStaysDraft(t *testing.T) {
	env := newTestEnv(t)

	rule, err := env.admin.Create(&RuleInput{
		Name: "formula deal", Kind: constants.RuleKindFormula, Formula: "price * 0.9 - 5",
		ScopeType: constants.ScopeProduct, ScopeRefID: "item-1",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rule.Status != constants.RuleStatusDraft {
		t.Fatalf("status want draft got %s", rule.Status)
	}
	pending, err := env.eventRepo.ListPendingByRule(rule.ID)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("draft rule must not have events, got %d", len(pending))
	}
}

func TestUpdateActiveRuleRecomputesHolders(t *testing.T) {
	env := newTestEnv(t)
	env.stub.scopes[scopeKey(constants.ScopeProduct, "item-1")] = []string{"item-1"}
	env.stub.prices["item-1"] = money(t, "100")

	start := time.Now().Add(-time.Minute)
	rule, err := env.admin.Create(&RuleInput{
		Name: "p20", Kind: constants.RuleKindPercentage, Value: money(t, "20"),
		ScopeType: constants.ScopeProduct, ScopeRefID: "item-1",
		StartAt: &start,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := env.scheduler.Sweep(context.Background(), time.Now().Add(time.Second)); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	// 生效中改折扣力度，持有商品从原价按新定义重算
	if _, err := env.admin.Update(rule.ID, &RuleInput{
		Name: "p30", Kind: constants.RuleKindPercentage, Value: money(t, "30"),
		ScopeType: constants.ScopeProduct, ScopeRefID: "item-1",
		StartAt: &start,
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	state, err := env.states.Get("item-1")
	if err != nil || state == nil {
		t.Fatalf("get state failed: %v", err)
	}
	if state.CurrentPrice.String() != "70.00" {
		t.Fatalf("recomputed price want 70.00 got %s", state.CurrentPrice.String())
	}
}

func TestUpdateMissingRule(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.admin.Update(404, &RuleInput{
		Name: "p20", Kind: constants.RuleKindPercentage, Value: money(t, "20"),
		ScopeType: constants.ScopeProduct, ScopeRefID: "item-1",
	})
	if !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("want ErrRuleNotFound got %v", err)
	}
}

func TestDeleteActiveRuleRestoresHolders(t *testing.T) {
	env := newTestEnv(t)
	env.stub.scopes[scopeKey(constants.ScopeProduct, "item-1")] = []string{"item-1"}
	env.stub.prices["item-1"] = money(t, "100")

	start := time.Now().Add(-time.Minute)
	end := time.Now().Add(time.Hour)
	rule, err := env.admin.Create(&RuleInput{
		Name: "p20", Kind: constants.RuleKindPercentage, Value: money(t, "20"),
		ScopeType: constants.ScopeProduct, ScopeRefID: "item-1",
		StartAt: &start, EndAt: &end,
		TagsAdd: models.StringArray{"on-sale"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := env.scheduler.Sweep(context.Background(), time.Now().Add(time.Second)); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if err := env.admin.Delete(rule.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	state, err := env.states.Get("item-1")
	if err != nil || state == nil {
		t.Fatalf("get state failed: %v", err)
	}
	if state.CurrentPrice.String() != "100.00" {
		t.Fatalf("price after delete want 100.00 got %s", state.CurrentPrice.String())
	}
	if len(state.ActiveRuleIDs) != 0 {
		t.Fatal("deleted rule must not stay active")
	}
	if env.stub.hasTag("item-1", "on-sale") {
		t.Fatal("delete must remove the sale tag")
	}

	// 待执行的结束事件一并取消
	pending, err := env.eventRepo.ListPendingByRule(rule.ID)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending events want 0 got %d", len(pending))
	}
	if _, err := env.admin.Get(rule.ID); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("want ErrRuleNotFound got %v", err)
	}
}
