package models

import "time"

// ItemPriceState 商品价格状态（每个商品一条，原价在首次接触时固化）
type ItemPriceState struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                        // 主键
	ItemID        string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"item_id"`       // 商品标识
	OriginalPrice Money     `gorm:"type:decimal(20,2);not null" json:"original_price"`           // 原价（首次观察后不可变）
	CurrentPrice  Money     `gorm:"type:decimal(20,2);not null" json:"current_price"`            // 当前价（由原价+生效规则栈重算得出）
	ActiveRuleIDs UintArray `gorm:"type:json" json:"active_rule_ids"`                            // 生效规则ID（按激活顺序）
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`                                     // 更新时间
}

// TableName 指定表名
func (ItemPriceState) TableName() string {
	return "item_price_states"
}
