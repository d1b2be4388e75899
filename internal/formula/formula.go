package formula

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/casbin/govaluate"
)

// ErrInvalidFormula 公式无法安全解析或求值
var ErrInvalidFormula = errors.New("invalid formula")

// PriceVariable 公式中唯一允许的变量名
const PriceVariable = "price"

// Formula 已编译的受限算术公式。
// 语法仅允许：数字字面量、变量 price、二元 + - * /、一元负号、括号。
// 编译时做一次词法白名单校验，之后可反复带入具体价格求值，
// 不存在把用户输入交给宿主语言执行的路径。
type Formula struct {
	src  string
	expr *govaluate.EvaluableExpression
}

// Compile 解析公式并校验语法白名单
func Compile(src string) (*Formula, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidFormula)
	}
	expr, err := govaluate.NewEvaluableExpression(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormula, err)
	}
	if err := checkTokens(expr.Tokens()); err != nil {
		return nil, err
	}
	return &Formula{src: trimmed, expr: expr}, nil
}

// Validate 仅做语法校验，不保留编译结果
func Validate(src string) error {
	_, err := Compile(src)
	return err
}

// Source 返回原始公式文本
func (f *Formula) Source() string {
	if f == nil {
		return ""
	}
	return f.src
}

// Eval 对给定价格求值。除零、NaN、无穷大均视为非法公式。
func (f *Formula) Eval(price float64) (float64, error) {
	if f == nil || f.expr == nil {
		return 0, fmt.Errorf("%w: not compiled", ErrInvalidFormula)
	}
	result, err := f.expr.Evaluate(map[string]interface{}{PriceVariable: price})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFormula, err)
	}
	value, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: non-numeric result", ErrInvalidFormula)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: non-finite result", ErrInvalidFormula)
	}
	return value, nil
}

// checkTokens 对词法单元做白名单检查
func checkTokens(tokens []govaluate.ExpressionToken) error {
	for _, token := range tokens {
		switch token.Kind {
		case govaluate.NUMERIC, govaluate.CLAUSE, govaluate.CLAUSE_CLOSE:
			// 允许
		case govaluate.VARIABLE:
			name, _ := token.Value.(string)
			if name != PriceVariable {
				return fmt.Errorf("%w: unknown identifier %q", ErrInvalidFormula, name)
			}
		case govaluate.PREFIX:
			op, _ := token.Value.(string)
			if op != "-" {
				return fmt.Errorf("%w: operator %q not allowed", ErrInvalidFormula, op)
			}
		case govaluate.MODIFIER:
			op, _ := token.Value.(string)
			switch op {
			case "+", "-", "*", "/":
				// 允许
			default:
				return fmt.Errorf("%w: operator %q not allowed", ErrInvalidFormula, op)
			}
		default:
			return fmt.Errorf("%w: token kind %v not allowed", ErrInvalidFormula, token.Kind)
		}
	}
	return nil
}
