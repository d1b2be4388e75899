package models

import "time"

// ScheduledEvent 规则调度事件（执行后标记 applied_at，不删除，保证幂等可审计）
type ScheduledEvent struct {
	ID        uint       `gorm:"primarykey" json:"id"`                              // 主键
	RuleID    uint       `gorm:"not null;index" json:"rule_id"`                     // 规则ID
	Kind      string     `gorm:"type:varchar(20);not null;index" json:"kind"`       // 事件类型（activate/deactivate）
	FireAt    time.Time  `gorm:"not null;index" json:"fire_at"`                     // 触发时间
	AppliedAt *time.Time `gorm:"index" json:"applied_at,omitempty"`                 // 执行时间（幂等键）
	Canceled  bool       `gorm:"not null;default:false" json:"canceled"`            // 取消标记（已标记执行但无副作用）
	CreatedAt time.Time  `gorm:"index" json:"created_at"`                           // 创建时间
}

// TableName 指定表名
func (ScheduledEvent) TableName() string {
	return "scheduled_events"
}

// Pending 判断事件是否仍待执行
func (e *ScheduledEvent) Pending() bool {
	return e != nil && e.AppliedAt == nil
}
