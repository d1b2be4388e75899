package repository

import (
	"errors"

	"github.com/pricetide/internal/constants"
	"github.com/pricetide/internal/models"

	"gorm.io/gorm"
)

// CatalogRepository 本地商品目录数据访问接口
type CatalogRepository interface {
	GetByExternalID(externalID string) (*models.CatalogItem, error)
	ListExternalIDsByScope(scopeType, scopeRefID string) ([]string, error)
	Create(item *models.CatalogItem) error
	Update(item *models.CatalogItem) error
	UpdatePrice(externalID string, price models.Money, compareAt *models.Money) error
	UpdateTags(externalID string, tags models.StringArray) error
	WithTx(tx *gorm.DB) *GormCatalogRepository
}

// GormCatalogRepository GORM 实现
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建商品目录仓库
func NewCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCatalogRepository) WithTx(tx *gorm.DB) *GormCatalogRepository {
	if tx == nil {
		return r
	}
	return &GormCatalogRepository{db: tx}
}

// GetByExternalID 根据外部商品ID获取目录项
func (r *GormCatalogRepository) GetByExternalID(externalID string) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := r.db.Where("external_id = ?", externalID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListExternalIDsByScope 按规则范围解析出外部商品ID列表
func (r *GormCatalogRepository) ListExternalIDsByScope(scopeType, scopeRefID string) ([]string, error) {
	query := r.db.Model(&models.CatalogItem{})
	switch scopeType {
	case constants.ScopeProduct:
		query = query.Where("external_id = ?", scopeRefID)
	case constants.ScopeCollection:
		query = query.Where("collection_id = ?", scopeRefID)
	case constants.ScopeVendor:
		query = query.Where("vendor = ?", scopeRefID)
	case constants.ScopeProductType:
		query = query.Where("product_type = ?", scopeRefID)
	default:
		return nil, nil
	}
	var ids []string
	if err := query.Order("id asc").Pluck("external_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Create 创建目录项
func (r *GormCatalogRepository) Create(item *models.CatalogItem) error {
	return r.db.Create(item).Error
}

// Update 更新目录项
func (r *GormCatalogRepository) Update(item *models.CatalogItem) error {
	return r.db.Save(item).Error
}

// UpdatePrice 更新目录项展示价与划线价
func (r *GormCatalogRepository) UpdatePrice(externalID string, price models.Money, compareAt *models.Money) error {
	return r.db.Model(&models.CatalogItem{}).
		Where("external_id = ?", externalID).
		Updates(map[string]interface{}{"price": price, "compare_at": compareAt}).Error
}

// UpdateTags 覆盖目录项标签
func (r *GormCatalogRepository) UpdateTags(externalID string, tags models.StringArray) error {
	return r.db.Model(&models.CatalogItem{}).
		Where("external_id = ?", externalID).
		Update("tags", tags).Error
}
