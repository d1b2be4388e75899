package catalog

import (
	"fmt"

	"github.com/pricetide/internal/logger"
	"github.com/pricetide/internal/models"
	"github.com/pricetide/internal/repository"
)

// Catalog 本地商品目录网关。
// 同时充当范围解析器、价格读写端与标签变更端，
// 把价格核心的全部外部副作用收敛到 catalog_items 一张表上。
type Catalog struct {
	repo repository.CatalogRepository
}

// New 创建商品目录网关
func New(repo repository.CatalogRepository) *Catalog {
	return &Catalog{repo: repo}
}

// ResolveItems 把规则范围解析为当前的商品ID集合
func (c *Catalog) ResolveItems(scopeType, scopeRefID string) ([]string, error) {
	return c.repo.ListExternalIDsByScope(scopeType, scopeRefID)
}

// CurrentPrice 读取商品当前展示价
func (c *Catalog) CurrentPrice(itemID string) (models.Money, error) {
	item, err := c.repo.GetByExternalID(itemID)
	if err != nil {
		return models.Money{}, err
	}
	if item == nil {
		return models.Money{}, fmt.Errorf("catalog item %s not found", itemID)
	}
	return item.Price, nil
}

// Push 把计算出的价格写回目录，compareAt 非空时作为划线价展示
func (c *Catalog) Push(itemID string, price models.Money, compareAt *models.Money) error {
	if err := c.repo.UpdatePrice(itemID, price, compareAt); err != nil {
		return err
	}
	logger.Debugw("catalog_price_pushed", "item_id", itemID, "price", price.String())
	return nil
}

// AddTags 给商品追加标签（已存在的跳过）
func (c *Catalog) AddTags(itemID string, tags []string) error {
	item, err := c.repo.GetByExternalID(itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("catalog item %s not found", itemID)
	}

	existing := make(map[string]bool, len(item.Tags))
	for _, tag := range item.Tags {
		existing[tag] = true
	}
	merged := append(models.StringArray{}, item.Tags...)
	for _, tag := range tags {
		if !existing[tag] {
			existing[tag] = true
			merged = append(merged, tag)
		}
	}
	if len(merged) == len(item.Tags) {
		return nil
	}
	return c.repo.UpdateTags(itemID, merged)
}

// RemoveTags 从商品上移除标签（不存在的忽略）
func (c *Catalog) RemoveTags(itemID string, tags []string) error {
	item, err := c.repo.GetByExternalID(itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("catalog item %s not found", itemID)
	}

	drop := make(map[string]bool, len(tags))
	for _, tag := range tags {
		drop[tag] = true
	}
	remaining := make(models.StringArray, 0, len(item.Tags))
	for _, tag := range item.Tags {
		if !drop[tag] {
			remaining = append(remaining, tag)
		}
	}
	if len(remaining) == len(item.Tags) {
		return nil
	}
	return c.repo.UpdateTags(itemID, remaining)
}
