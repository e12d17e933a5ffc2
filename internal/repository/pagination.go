package repository

import "gorm.io/gorm"

// applyPagination 给列表查询套上分页。pageSize 非正表示不分页
// （CSV 导出全量拉取走这条路），页码非法时按第一页处理。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
