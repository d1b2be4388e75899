package constants

// 折扣规则类型常量
const (
	RuleKindPercentage = "percentage"
	RuleKindFixed      = "fixed"
	RuleKindFormula    = "formula"
)

// 折扣规则状态常量
const (
	RuleStatusDraft     = "draft"
	RuleStatusScheduled = "scheduled"
	RuleStatusActive    = "active"
	RuleStatusCompleted = "completed"
)

// 规则适用范围常量
const (
	ScopeProduct     = "product"
	ScopeCollection  = "collection"
	ScopeVendor      = "vendor"
	ScopeProductType = "product_type"
)

// 调度事件类型常量
const (
	EventKindActivate   = "activate"
	EventKindDeactivate = "deactivate"
)

// 队列与任务常量
const (
	QueueDefault       = "default"
	TaskSchedulerSweep = "scheduler:sweep"
)

// FormulaSamplePrice 公式规则校验时使用的样例价格
const FormulaSamplePrice = 100
