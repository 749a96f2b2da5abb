package repository

import "gorm.io/gorm"

// applyPagination 给查询追加分页；pageSize 不合法时不分页，页码向下钳到 1
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
