package service

import (
	"errors"
	"testing"

	"github.com/pricetide/internal/constants"
	"github.com/pricetide/internal/models"
)

func TestGetOrInitCapturesOriginalOnce(t *testing.T) {
	env := newTestEnv(t)

	state, err := env.states.GetOrInit("item-1", money(t, "100"))
	if err != nil {
		t.Fatalf("get or init failed: %v", err)
	}
	if state.OriginalPrice.String() != "100.00" {
		t.Fatalf("original want 100.00 got %s", state.OriginalPrice.String())
	}

	// 再次初始化时观察价不同，原价不变
	again, err := env.states.GetOrInit("item-1", money(t, "66.60"))
	if err != nil {
		t.Fatalf("get or init failed: %v", err)
	}
	if again.OriginalPrice.String() != "100.00" {
		t.Fatalf("original must stay 100.00, got %s", again.OriginalPrice.String())
	}
}

func TestApplyAndRemoveRecomputeFromOriginal(t *testing.T) {
	env := newTestEnv(t)
	env.stub.prices["item-1"] = money(t, "100")

	p20 := env.mustCreateRule(t, &models.DiscountRule{
		Name: "p20", Kind: constants.RuleKindPercentage, Value: money(t, "20"),
		ScopeType: constants.ScopeProduct, ScopeRefID: "item-1",
	})
	f10 := env.mustCreateRule(t, &models.DiscountRule{
		Name: "f10", Kind: constants.RuleKindFixed, Value: money(t, "10"),
		ScopeType: constants.ScopeProduct, ScopeRefID: "item-1",
	})

	price, err := env.states.ApplyRule("item-1", p20)
	if err != nil {
		t.Fatalf("apply p20 failed: %v", err)
	}
	if price.String() != "80.00" {
		t.Fatalf("after p20 want 80.00 got %s", price.String())
	}

	price, err = env.states.ApplyRule("item-1", f10)
	if err != nil {
		t.Fatalf("apply f10 failed: %v", err)
	}
	if price.String() != "70.00" {
		t.Fatalf("after f10 want 70.00 got %s", price.String())
	}

	// 移除先生效的规则，剩余栈从原价重算
	price, err = env.states.RemoveRule("item-1", p20.ID)
	if err != nil {
		t.Fatalf("remove p20 failed: %v", err)
	}
	if price.String() != "90.00" {
		t.Fatalf("after removing p20 want 90.00 got %s", price.String())
	}

	price, err = env.states.RemoveRule("item-1", f10.ID)
	if err != nil {
		t.Fatalf("remove f10 failed: %v", err)
	}
	if price.String() != "100.00" {
		t.Fatalf("empty stack want 100.00 got %s", price.String())
	}

	if got := env.ledgerCount(t, "item-1"); got != 4 {
		t.Fatalf("ledger entries want 4 got %d", got)
	}
	// 栈清空后不再推划线价
	if env.stub.pushedCompareAt("item-1") != nil {
		t.Fatal("compare at must be nil when no rules active")
	}
}

func TestApplyRulePushesCompareAt(t *testing.T) {
	env := newTestEnv(t)
	env.stub.prices["item-1"] = money(t, "100")
	rule := env.mustCreateRule(t, &models.DiscountRule{
		Name: "p20", Kind: constants.RuleKindPercentage, Value: money(t, "20"),
		ScopeType: constants.ScopeProduct, ScopeRefID: "item-1",
	})

	if _, err := env.states.ApplyRule("item-1", rule); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	pushed, ok := env.stub.pushedPrice("item-1")
	if !ok {
		t.Fatal("price was not pushed")
	}
	if pushed.String() != "80.00" {
		t.Fatalf("pushed want 80.00 got %s", pushed.String())
	}
	compareAt := env.stub.pushedCompareAt("item-1")
	if compareAt == nil || compareAt.String() != "100.00" {
		t.Fatalf("compare at want 100.00 got %v", compareAt)
	}
}

func TestApplyRuleIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.stub.prices["item-1"] = money(t, "100")
	rule := env.mustCreateRule(t, &models.DiscountRule{
		Name: "p20", Kind: constants.RuleKindPercentage, Value: money(t, "20"),
		ScopeType: constants.ScopeProduct, ScopeRefID: "item-1",
	})

	if _, err := env.states.ApplyRule("item-1", rule); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	before := env.ledgerCount(t, "item-1")

	price, err := env.states.ApplyRule("item-1", rule)
	if err != nil {
		t.Fatalf("second apply failed: %v", err)
	}
	if price.String() != "80.00" {
		t.Fatalf("idempotent apply want 80.00 got %s", price.String())
	}
	if got := env.ledgerCount(t, "item-1"); got != before {
		t.Fatalf("repeated apply must not add ledger entries: %d -> %d", before, got)
	}
}

func TestManualOverrideKeepsActiveRules(t *testing.T) {
	env := newTestEnv(t)
	env.stub.prices["item-1"] = money(t, "100")
	rule := env.mustCreateRule(t, &models.DiscountRule{
		Name: "p20", Kind: constants.RuleKindPercentage, Value: money(t, "20"),
		ScopeType: constants.ScopeProduct, ScopeRefID: "item-1",
	})
	if _, err := env.states.ApplyRule("item-1", rule); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	entry, err := env.states.ManualOverride("item-1", money(t, "55.55"))
	if err != nil {
		t.Fatalf("manual override failed: %v", err)
	}
	if entry.CauseRuleID != nil {
		t.Fatal("manual override entry must not carry a cause rule")
	}
	if entry.OldPrice.String() != "80.00" || entry.NewPrice.String() != "55.55" {
		t.Fatalf("entry prices want 80.00 -> 55.55 got %s -> %s", entry.OldPrice.String(), entry.NewPrice.String())
	}

	state, err := env.states.Get("item-1")
	if err != nil {
		t.Fatalf("get state failed: %v", err)
	}
	if !state.ActiveRuleIDs.Contains(rule.ID) {
		t.Fatal("manual override must keep the active rule stack")
	}
	if state.CurrentPrice.String() != "55.55" {
		t.Fatalf("current want 55.55 got %s", state.CurrentPrice.String())
	}
}

func TestSinkFailureKeepsLocalState(t *testing.T) {
	env := newTestEnv(t)
	env.stub.prices["item-1"] = money(t, "100")
	rule := env.mustCreateRule(t, &models.DiscountRule{
		Name: "p20", Kind: constants.RuleKindPercentage, Value: money(t, "20"),
		ScopeType: constants.ScopeProduct, ScopeRefID: "item-1",
	})
	env.stub.setPushErr(errors.New("upstream 502"))

	_, err := env.states.ApplyRule("item-1", rule)
	if !errors.Is(err, ErrSinkFailure) {
		t.Fatalf("want ErrSinkFailure got %v", err)
	}

	// 本地状态与流水已提交，推送失败只影响外部平台
	state, err := env.states.Get("item-1")
	if err != nil {
		t.Fatalf("get state failed: %v", err)
	}
	if state.CurrentPrice.String() != "80.00" {
		t.Fatalf("local current want 80.00 got %s", state.CurrentPrice.String())
	}
	if got := env.ledgerCount(t, "item-1"); got != 1 {
		t.Fatalf("ledger entries want 1 got %d", got)
	}
}
