// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"bazi-engine-api/internal/domain/entity"
)

// ChartFilter 命盘检索条件，零值字段不参与过滤
type ChartFilter struct {
	DayMaster        string
	Pattern          string
	Strength         string
	Gender           string
	Broken           *bool
	FavorableElement string
	VoidBranch       string
	Sort             Sort
}

// ChartRepository 命盘归档仓储接口
type ChartRepository interface {
	// Create 归档命盘记录
	Create(ctx context.Context, record *entity.ChartRecord) error

	// GetByID 根据 ID 获取命盘记录，未找到返回 (nil, nil)
	GetByID(ctx context.Context, id string) (*entity.ChartRecord, error)

	// GetByKey 根据归一化键获取命盘记录（归档去重），未找到返回 (nil, nil)
	GetByKey(ctx context.Context, key string) (*entity.ChartRecord, error)

	// GetByIDs 批量获取命盘记录，结果顺序不保证
	GetByIDs(ctx context.Context, ids []string) ([]*entity.ChartRecord, error)

	// Delete 删除命盘记录
	Delete(ctx context.Context, id string) error

	// List 按条件分页检索命盘记录
	List(ctx context.Context, filter *ChartFilter, pagination Pagination) (*PagedResult[*entity.ChartRecord], error)

	// CountByPattern 按主格统计归档数量
	CountByPattern(ctx context.Context) (map[string]int64, error)
}
