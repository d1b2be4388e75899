package service

import (
	"errors"

	"github.com/pricetide/internal/formula"
)

// 服务层错误定义
var (
	ErrRuleInvalid       = errors.New("discount rule invalid")
	ErrRuleNotFound      = errors.New("discount rule not found")
	ErrInvalidFormula    = formula.ErrInvalidFormula
	ErrEntryNotFound     = errors.New("ledger entry not found")
	ErrItemStateNotFound = errors.New("item price state not found")
	ErrSinkFailure       = errors.New("price sink push failed")
	ErrQueueUnavailable  = errors.New("queue unavailable")
)
