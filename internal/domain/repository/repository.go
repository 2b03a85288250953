// Package repository 定义命盘归档与批量任务的数据访问接口
package repository

import (
	"context"
)

// TxKey 事务上下文键，仓储实现通过它复用同一事务连接
type TxKey struct{}

// Transactor 事务边界接口，归档写入与任务状态流转在事务内执行
type Transactor interface {
	// WithTransaction 在单个事务中执行 fn，fn 返回错误时整体回滚
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pagination 分页参数，越界值在构造时收敛到安全范围
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPagination 构造分页参数，页码最小 1，页大小默认 20、上限 100
func NewPagination(page, pageSize int) Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// Offset 计算偏移量
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit 获取限制数量
func (p Pagination) Limit() int {
	return p.PageSize
}

// PagedResult 分页结果
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPagedResult 构造分页结果并计算总页数
func NewPagedResult[T any](items []T, total int64, pagination Pagination) *PagedResult[T] {
	totalPages := int(total) / pagination.PageSize
	if int(total)%pagination.PageSize > 0 {
		totalPages++
	}
	return &PagedResult[T]{
		Items:      items,
		Total:      total,
		Page:       pagination.Page,
		PageSize:   pagination.PageSize,
		TotalPages: totalPages,
	}
}

// SortOrder 排序方向
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// Sort 检索排序参数，零值表示由仓储实现决定默认排序
type Sort struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// NewSort 构造排序参数，非法方向归一为降序
func NewSort(field string, order SortOrder) Sort {
	if order != SortOrderAsc {
		order = SortOrderDesc
	}
	return Sort{Field: field, Order: order}
}

// IsZero 是否未指定排序字段
func (s Sort) IsZero() bool {
	return s.Field == ""
}

// OrderClause 生成 SQL 排序片段，Field 需由调用方白名单约束
func (s Sort) OrderClause() string {
	return s.Field + " " + string(s.Order)
}
