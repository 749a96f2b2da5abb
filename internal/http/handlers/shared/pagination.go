package shared

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NormalizePagination 钳制分页参数，页大小封顶防止全表拉取
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
