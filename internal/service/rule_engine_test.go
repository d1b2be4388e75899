package service

import (
	"testing"

	"github.com/pricetide/internal/constants"
	"github.com/pricetide/internal/models"
)

func TestComputeStackInOrder(t *testing.T) {
	engine := NewRuleEngine()
	base := money(t, "100")
	p20 := models.DiscountRule{ID: 1, Kind: constants.RuleKindPercentage, Value: money(t, "20")}
	f10 := models.DiscountRule{ID: 2, Kind: constants.RuleKindFixed, Value: money(t, "10")}

	got, err := engine.Compute(base, []models.DiscountRule{p20})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if got.String() != "80.00" {
		t.Fatalf("percentage alone want 80.00 got %s", got.String())
	}

	got, err = engine.Compute(base, []models.DiscountRule{p20, f10})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if got.String() != "70.00" {
		t.Fatalf("stacked want 70.00 got %s", got.String())
	}

	// 移除百分比规则后对剩余栈重算，结果与该规则从未生效时一致
	got, err = engine.Compute(base, []models.DiscountRule{f10})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if got.String() != "90.00" {
		t.Fatalf("after removal want 90.00 got %s", got.String())
	}

	got, err = engine.Compute(base, nil)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if got.String() != "100.00" {
		t.Fatalf("empty stack want 100.00 got %s", got.String())
	}
}

func TestComputeDeterministic(t *testing.T) {
	engine := NewRuleEngine()
	base := money(t, "59.99")
	rules := []models.DiscountRule{
		{ID: 1, Kind: constants.RuleKindFormula, Formula: "price * 0.9 - 5"},
		{ID: 2, Kind: constants.RuleKindPercentage, Value: money(t, "15")},
	}
	first, err := engine.Compute(base, rules)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := engine.Compute(base, rules)
		if err != nil {
			t.Fatalf("compute failed: %v", err)
		}
		if !again.Equal(first.Decimal) {
			t.Fatalf("compute not deterministic: %s vs %s", first.String(), again.String())
		}
	}
}

func TestComputeFormula(t *testing.T) {
	engine := NewRuleEngine()
	got, err := engine.Compute(money(t, "100"), []models.DiscountRule{
		{ID: 1, Kind: constants.RuleKindFormula, Formula: "price * 0.9 - 5"},
	})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if got.String() != "85.00" {
		t.Fatalf("formula want 85.00 got %s", got.String())
	}
}

func TestComputeFloorsAtZero(t *testing.T) {
	engine := NewRuleEngine()

	got, err := engine.Compute(money(t, "5"), []models.DiscountRule{
		{ID: 1, Kind: constants.RuleKindFixed, Value: money(t, "10")},
	})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if got.String() != "0.00" {
		t.Fatalf("fixed below zero want 0.00 got %s", got.String())
	}

	got, err = engine.Compute(money(t, "3"), []models.DiscountRule{
		{ID: 1, Kind: constants.RuleKindFormula, Formula: "price - 100"},
	})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if got.String() != "0.00" {
		t.Fatalf("formula below zero want 0.00 got %s", got.String())
	}
}

func TestComputeRoundsHalfUp(t *testing.T) {
	engine := NewRuleEngine()
	// 1.00 * 87.5% = 0.875，四舍五入到 0.88
	got, err := engine.Compute(money(t, "1"), []models.DiscountRule{
		{ID: 1, Kind: constants.RuleKindPercentage, Value: money(t, "12.5")},
	})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if got.String() != "0.88" {
		t.Fatalf("rounding want 0.88 got %s", got.String())
	}
}

func TestComputeRejectsUnknownKind(t *testing.T) {
	engine := NewRuleEngine()
	if _, err := engine.Compute(money(t, "10"), []models.DiscountRule{{ID: 1, Kind: "bogof"}}); err == nil {
		t.Fatal("unknown kind should fail")
	}
}

func TestValidateRule(t *testing.T) {
	engine := NewRuleEngine()
	base := func() *models.DiscountRule {
		return &models.DiscountRule{
			Name:       "spring sale",
			Kind:       constants.RuleKindPercentage,
			Value:      money(t, "20"),
			ScopeType:  constants.ScopeCollection,
			ScopeRefID: "col-1",
			Timezone:   "UTC",
		}
	}

	if errs := engine.ValidateRule(base()); len(errs) != 0 {
		t.Fatalf("valid rule should pass, got %v", errs)
	}

	cases := []struct {
		name   string
		mutate func(*models.DiscountRule)
	}{
		{"empty name", func(r *models.DiscountRule) { r.Name = " " }},
		{"unknown kind", func(r *models.DiscountRule) { r.Kind = "bogof" }},
		{"percentage above 100", func(r *models.DiscountRule) { r.Value = money(t, "120") }},
		{"negative fixed", func(r *models.DiscountRule) {
			r.Kind = constants.RuleKindFixed
			r.Value = money(t, "-1")
		}},
		{"formula with unknown variable", func(r *models.DiscountRule) {
			r.Kind = constants.RuleKindFormula
			r.Formula = "cost * 2"
		}},
		{"formula dividing by zero", func(r *models.DiscountRule) {
			r.Kind = constants.RuleKindFormula
			r.Formula = "price / 0"
		}},
		{"missing scope ref", func(r *models.DiscountRule) { r.ScopeRefID = "" }},
		{"unknown scope type", func(r *models.DiscountRule) { r.ScopeType = "warehouse" }},
		{"end without start", func(r *models.DiscountRule) {
			end := mustTime(t, "2026-09-10T00:00:00Z")
			r.EndAt = &end
		}},
		{"end before start", func(r *models.DiscountRule) {
			start := mustTime(t, "2026-09-10T00:00:00Z")
			end := mustTime(t, "2026-09-01T00:00:00Z")
			r.StartAt = &start
			r.EndAt = &end
		}},
		{"unknown timezone", func(r *models.DiscountRule) { r.Timezone = "Mars/Olympus" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := base()
			tc.mutate(rule)
			if errs := engine.ValidateRule(rule); len(errs) == 0 {
				t.Fatalf("expected validation errors for %s", tc.name)
			}
		})
	}
}
