package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/pricetide/internal/constants"
	"github.com/pricetide/internal/formula"
	"github.com/pricetide/internal/models"

	"github.com/shopspring/decimal"
)

// RuleEngine 折扣规则计算引擎。
// Compute 是 (basePrice, rules) 的纯函数：每次都从原价沿规则栈完整重算，
// 绝不基于上一次的现价做增量修正，因此从规则栈移除任一规则后重算，
// 结果与该规则从未生效时完全一致。
type RuleEngine struct{}

// NewRuleEngine 创建规则引擎
func NewRuleEngine() *RuleEngine {
	return &RuleEngine{}
}

// Compute 按栈顺序应用规则，返回保留 2 位小数（四舍五入）的最终价格
func (e *RuleEngine) Compute(basePrice models.Money, rules []models.DiscountRule) (models.Money, error) {
	price := basePrice.Decimal
	hundred := decimal.NewFromInt(100)

	for i := range rules {
		rule := &rules[i]
		switch strings.ToLower(strings.TrimSpace(rule.Kind)) {
		case constants.RuleKindPercentage:
			price = price.Mul(hundred.Sub(rule.Value.Decimal)).Div(hundred)
		case constants.RuleKindFixed:
			price = price.Sub(rule.Value.Decimal)
			if price.LessThan(decimal.Zero) {
				price = decimal.Zero
			}
		case constants.RuleKindFormula:
			compiled, err := formula.Compile(rule.Formula)
			if err != nil {
				return models.Money{}, err
			}
			result, err := compiled.Eval(price.InexactFloat64())
			if err != nil {
				return models.Money{}, err
			}
			price = decimal.NewFromFloat(result)
			if price.LessThan(decimal.Zero) {
				price = decimal.Zero
			}
		default:
			return models.Money{}, fmt.Errorf("%w: unknown rule kind %q", ErrRuleInvalid, rule.Kind)
		}
	}

	return models.NewMoneyFromDecimal(price), nil
}

// ValidateRule 校验规则定义，返回全部校验错误（空表示通过）
func (e *RuleEngine) ValidateRule(rule *models.DiscountRule) ValidationErrors {
	var errs ValidationErrors
	if rule == nil {
		return ValidationErrors{{Field: "rule", Message: "required"}}
	}

	if strings.TrimSpace(rule.Name) == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "required"})
	}

	switch strings.ToLower(strings.TrimSpace(rule.Kind)) {
	case constants.RuleKindPercentage:
		value := rule.Value.Decimal
		if value.LessThan(decimal.Zero) || value.GreaterThan(decimal.NewFromInt(100)) {
			errs = append(errs, ValidationError{Field: "value", Message: "percentage must be between 0 and 100"})
		}
	case constants.RuleKindFixed:
		if rule.Value.Decimal.LessThan(decimal.Zero) {
			errs = append(errs, ValidationError{Field: "value", Message: "fixed amount must not be negative"})
		}
	case constants.RuleKindFormula:
		errs = append(errs, e.validateFormula(rule.Formula)...)
	default:
		errs = append(errs, ValidationError{Field: "kind", Message: "must be percentage, fixed or formula"})
	}

	switch strings.ToLower(strings.TrimSpace(rule.ScopeType)) {
	case constants.ScopeProduct, constants.ScopeCollection, constants.ScopeVendor, constants.ScopeProductType:
		if strings.TrimSpace(rule.ScopeRefID) == "" {
			errs = append(errs, ValidationError{Field: "scope_ref_id", Message: "required"})
		}
	default:
		errs = append(errs, ValidationError{Field: "scope_type", Message: "must be product, collection, vendor or product_type"})
	}

	errs = append(errs, e.validateSchedule(rule)...)
	return errs
}

func (e *RuleEngine) validateFormula(src string) ValidationErrors {
	compiled, err := formula.Compile(src)
	if err != nil {
		return ValidationErrors{{Field: "formula", Message: err.Error()}}
	}
	// 以样例价格试算，保证公式可求值且结果非负
	result, err := compiled.Eval(constants.FormulaSamplePrice)
	if err != nil {
		return ValidationErrors{{Field: "formula", Message: err.Error()}}
	}
	if result < 0 {
		return ValidationErrors{{Field: "formula", Message: "must not produce a negative price"}}
	}
	return nil
}

func (e *RuleEngine) validateSchedule(rule *models.DiscountRule) ValidationErrors {
	var errs ValidationErrors
	if rule.EndAt != nil && rule.StartAt == nil {
		errs = append(errs, ValidationError{Field: "start_at", Message: "required when end_at is set"})
	}
	if rule.StartAt != nil && rule.EndAt != nil && !rule.EndAt.After(*rule.StartAt) {
		errs = append(errs, ValidationError{Field: "end_at", Message: "must be after start_at"})
	}
	if tz := strings.TrimSpace(rule.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			errs = append(errs, ValidationError{Field: "timezone", Message: "unknown timezone"})
		}
	}
	return errs
}
