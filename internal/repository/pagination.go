package repository

import "gorm.io/gorm"

// applyPagination 为规则与流水列表查询附加分页。pageSize 不大于零表示不分页。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
