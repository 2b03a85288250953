// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"bazi-engine-api/internal/domain/entity"
	"bazi-engine-api/internal/domain/repository"
)

var _ repository.ChartRepository = (*ChartRepository)(nil)

// ChartRepository 命盘归档仓储实现
type ChartRepository struct {
	client *Client
}

// NewChartRepository 创建命盘归档仓储
func NewChartRepository(client *Client) *ChartRepository {
	return &ChartRepository{client: client}
}

// Create 归档命盘记录
func (r *ChartRepository) Create(ctx context.Context, record *entity.ChartRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.ChartRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(record).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chart record: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取命盘记录
func (r *ChartRepository) GetByID(ctx context.Context, id string) (*entity.ChartRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChartRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var record entity.ChartRecord
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chart record: %w", err)
	}
	return &record, nil
}

// GetByKey 根据归一化键获取命盘记录
func (r *ChartRepository) GetByKey(ctx context.Context, key string) (*entity.ChartRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChartRepository.GetByKey")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var record entity.ChartRecord
	if err := db.First(&record, "chart_key = ?", key).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chart record by key: %w", err)
	}
	return &record, nil
}

// GetByIDs 批量获取命盘记录
func (r *ChartRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.ChartRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChartRepository.GetByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	db := getDB(ctx, r.client.db)
	var records []*entity.ChartRecord
	if err := db.Where("id IN ?", ids).Find(&records).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chart records: %w", err)
	}
	return records, nil
}

// Delete 删除命盘记录
func (r *ChartRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChartRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.ChartRecord{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chart record: %w", err)
	}
	return nil
}

// List 按条件分页检索命盘记录
func (r *ChartRepository) List(ctx context.Context, filter *repository.ChartFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.ChartRecord], error) {
	ctx, span := tracer.Start(ctx, "postgres.ChartRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.ChartRecord{})

	// 应用过滤条件
	if filter != nil {
		if filter.DayMaster != "" {
			query = query.Where("day_master = ?", filter.DayMaster)
		}
		if filter.Pattern != "" {
			query = query.Where("pattern = ?", filter.Pattern)
		}
		if filter.Strength != "" {
			query = query.Where("strength = ?", filter.Strength)
		}
		if filter.Gender != "" {
			query = query.Where("gender = ?", filter.Gender)
		}
		if filter.Broken != nil {
			query = query.Where("broken = ?", *filter.Broken)
		}
		if filter.FavorableElement != "" {
			query = query.Where("favorable_elements @> ?", pq.Array([]string{filter.FavorableElement}))
		}
		if filter.VoidBranch != "" {
			query = query.Where("void_branches @> ?", pq.Array([]string{filter.VoidBranch}))
		}
	}

	// 获取总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count chart records: %w", err)
	}

	// 获取列表，未指定排序时按归档时间倒序
	order := "created_at DESC"
	if filter != nil && !filter.Sort.IsZero() {
		order = filter.Sort.OrderClause()
	}
	var records []*entity.ChartRecord
	if err := query.Order(order).
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&records).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chart records: %w", err)
	}

	return repository.NewPagedResult(records, total, pagination), nil
}

// CountByPattern 按主格统计归档数量
func (r *ChartRepository) CountByPattern(ctx context.Context) (map[string]int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChartRepository.CountByPattern")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rows []struct {
		Pattern string
		Count   int64
	}
	if err := db.Model(&entity.ChartRecord{}).
		Select("pattern, COUNT(*) AS count").
		Where("pattern <> ''").
		Group("pattern").
		Scan(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count chart records by pattern: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Pattern] = row.Count
	}
	return counts, nil
}
