package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscountRule 限时折扣规则
type DiscountRule struct {
	ID         uint           `gorm:"primarykey" json:"id"`                             // 主键
	Name       string         `gorm:"type:varchar(120);not null" json:"name"`           // 名称
	Kind       string         `gorm:"type:varchar(20);not null;index" json:"kind"`      // 类型（percentage/fixed/formula）
	Value      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"value"` // 数值（百分比/固定金额）
	Formula    string         `gorm:"type:varchar(255)" json:"formula"`                 // 公式（仅 formula 类型）
	ScopeType  string         `gorm:"type:varchar(20);not null;index" json:"scope_type"` // 适用范围（product/collection/vendor/product_type）
	ScopeRefID string         `gorm:"type:varchar(120);not null;index" json:"scope_ref_id"` // 范围标识（商品ID/集合ID/供应商/品类）
	StartAt    *time.Time     `gorm:"index" json:"start_at"`                            // 生效时间
	EndAt      *time.Time     `gorm:"index" json:"end_at"`                              // 失效时间（空表示长期有效）
	Timezone   string         `gorm:"type:varchar(64);not null;default:'UTC'" json:"timezone"` // 调度时区
	TagsAdd    StringArray    `gorm:"type:json" json:"tags_add"`                        // 激活时添加的标签
	TagsRemove StringArray    `gorm:"type:json" json:"tags_remove"`                     // 结束时移除的标签
	Status     string         `gorm:"type:varchar(20);not null;index" json:"status"`    // 状态（draft/scheduled/active/completed）
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                          // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                          // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                   // 软删除时间
}

// TableName 指定表名
func (DiscountRule) TableName() string {
	return "discount_rules"
}

// HasSchedule 判断规则是否已配置调度窗口
func (r *DiscountRule) HasSchedule() bool {
	return r != nil && r.StartAt != nil
}
