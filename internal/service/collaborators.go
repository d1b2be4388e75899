package service

import (
	"time"

	"github.com/pricetide/internal/models"
)

// ScopeResolver 把规则的适用范围解析为当前的商品ID集合（求值时解析，不在规则上固化）
type ScopeResolver interface {
	ResolveItems(scopeType, scopeRefID string) ([]string, error)
}

// PriceSource 读取外部平台上商品的当前价格（用于首次接触时固化原价）
type PriceSource interface {
	CurrentPrice(itemID string) (models.Money, error)
}

// PriceSink 把计算结果推送到外部平台。
// compareAt 非空时作为划线价展示折扣前价格；推送失败由调用方决定是否重试，
// 本地状态与流水在推送前已提交，是重推时的事实来源。
type PriceSink interface {
	Push(itemID string, price models.Money, compareAt *models.Money) error
}

// TagMutator 规则激活/结束时对商品增删标签
type TagMutator interface {
	AddTags(itemID string, tags []string) error
	RemoveTags(itemID string, tags []string) error
}

// SweepNudger 调度提醒：在事件触发时间附近促发一次提前 sweep。
// 仅用于降低延迟，正确性完全由持久化的 sweep 保证。
type SweepNudger interface {
	NudgeSweepAt(fireAt time.Time) error
}
