package repository

// RuleListFilter 查询折扣规则列表的过滤条件
type RuleListFilter struct {
	Page       int
	PageSize   int
	Status     string
	Kind       string
	ScopeType  string
	ScopeRefID string
	Search     string
}

// LedgerListFilter 查询价格流水的过滤条件
type LedgerListFilter struct {
	Page     int
	PageSize int
}

// EventListFilter 查询调度事件的过滤条件
type EventListFilter struct {
	Page     int
	PageSize int
	RuleID   uint
	Kind     string
	Pending  *bool
}
