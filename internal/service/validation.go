package service

import "strings"

// ValidationError 单条规则校验错误
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors 规则校验错误集合。
// 通过 errors.Is 与 ErrRuleInvalid 匹配，handler 可用 errors.As 取出明细。
type ValidationErrors []ValidationError

// Error 实现 error 接口
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ErrRuleInvalid.Error()
	}
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "rule validation failed: " + strings.Join(parts, "; ")
}

// Is 允许 errors.Is(err, ErrRuleInvalid) 匹配
func (v ValidationErrors) Is(target error) bool {
	return target == ErrRuleInvalid
}
