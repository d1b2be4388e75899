package shared

const (
	defaultPageSize = 20
	// 价格流水按商品可能很长，单页上限防止一次拉全量
	maxPageSize = 100
)

// NormalizePagination 归一化列表接口的分页参数。
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
