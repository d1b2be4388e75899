package models

import "time"

// PriceLedgerEntry 价格变更流水（只追加，永不更新或删除）
type PriceLedgerEntry struct {
	ID                  uint      `gorm:"primarykey" json:"id"`                                  // 主键
	ItemID              string    `gorm:"type:varchar(120);not null;index" json:"item_id"`       // 商品标识
	OldPrice            Money     `gorm:"type:decimal(20,2);not null" json:"old_price"`          // 变更前价格
	NewPrice            Money     `gorm:"type:decimal(20,2);not null" json:"new_price"`          // 变更后价格
	CauseRuleID         *uint     `gorm:"index" json:"cause_rule_id,omitempty"`                  // 触发规则ID（空表示手工操作或恢复）
	RestoredFromEntryID *uint     `gorm:"index" json:"restored_from_entry_id,omitempty"`         // 被恢复的流水ID
	CreatedAt           time.Time `gorm:"index;not null" json:"created_at"`                      // 记录时间
}

// TableName 指定表名
func (PriceLedgerEntry) TableName() string {
	return "price_ledger_entries"
}
