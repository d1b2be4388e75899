package models

import (
	"time"

	"gorm.io/gorm"
)

// CatalogItem 本地商品目录镜像（用于范围解析与标签维护）
type CatalogItem struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                    // 主键
	ExternalID   string         `gorm:"type:varchar(120);uniqueIndex;not null" json:"external_id"` // 外部平台商品ID
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`                 // 商品标题
	Vendor       string         `gorm:"type:varchar(120);index" json:"vendor"`                   // 供应商
	ProductType  string         `gorm:"type:varchar(120);index" json:"product_type"`             // 商品品类
	CollectionID string         `gorm:"type:varchar(120);index" json:"collection_id"`            // 所属集合ID
	Price        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`      // 平台展示价
	CompareAt    *Money         `gorm:"type:decimal(20,2)" json:"compare_at,omitempty"`          // 划线价（折扣期展示原价）
	Tags         StringArray    `gorm:"type:json" json:"tags"`                                   // 标签
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
}

// TableName 指定表名
func (CatalogItem) TableName() string {
	return "catalog_items"
}
