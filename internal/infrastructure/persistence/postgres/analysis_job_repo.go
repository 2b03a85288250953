// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bazi-engine-api/internal/domain/entity"
	"bazi-engine-api/internal/domain/repository"
)

var _ repository.AnalysisJobRepository = (*AnalysisJobRepository)(nil)

// AnalysisJobRepository 批量排盘任务仓储实现
type AnalysisJobRepository struct {
	client *Client
}

// NewAnalysisJobRepository 创建批量排盘任务仓储
func NewAnalysisJobRepository(client *Client) *AnalysisJobRepository {
	return &AnalysisJobRepository{client: client}
}

// Create 创建任务
func (r *AnalysisJobRepository) Create(ctx context.Context, job *entity.AnalysisJob) error {
	ctx, span := tracer.Start(ctx, "postgres.AnalysisJobRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(job).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create analysis job: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取任务
func (r *AnalysisJobRepository) GetByID(ctx context.Context, id string) (*entity.AnalysisJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.AnalysisJobRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var job entity.AnalysisJob
	if err := db.First(&job, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get analysis job: %w", err)
	}
	return &job, nil
}

// Update 更新任务
func (r *AnalysisJobRepository) Update(ctx context.Context, job *entity.AnalysisJob) error {
	ctx, span := tracer.Start(ctx, "postgres.AnalysisJobRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(job).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update analysis job: %w", err)
	}
	return nil
}

// AppendResult 以行锁附加单项结果并更新计数。多个 worker 并发
// 消费同一任务的不同单项，依赖 SELECT FOR UPDATE 串行化读改写；
// 重复 index 直接返回当前任务且不计数。
func (r *AnalysisJobRepository) AppendResult(ctx context.Context, jobID string, item entity.JobItemResult) (*entity.AnalysisJob, bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.AnalysisJobRepository.AppendResult")
	defer span.End()

	var (
		job      entity.AnalysisJob
		appended bool
	)
	db := getDB(ctx, r.client.db)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&job, "id = ?", jobID).Error; err != nil {
			return err
		}

		for i := range job.Results {
			if job.Results[i].Index == item.Index {
				return nil
			}
		}

		if job.Status == entity.JobStatusPending {
			job.Start()
		}
		job.AddResult(item)
		if job.Completed+job.Failed >= job.Total {
			job.Finish()
		}

		if err := tx.Save(&job).Error; err != nil {
			return err
		}
		appended = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("failed to append analysis job result: %w", err)
	}
	return &job, appended, nil
}

// UpdateStatus 更新任务状态
func (r *AnalysisJobRepository) UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error {
	ctx, span := tracer.Start(ctx, "postgres.AnalysisJobRepository.UpdateStatus")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.AnalysisJob{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update analysis job status: %w", err)
	}
	return nil
}

// GetPendingJobs 获取待处理任务
func (r *AnalysisJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*entity.AnalysisJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.AnalysisJobRepository.GetPendingJobs")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var jobs []*entity.AnalysisJob
	if err := db.Where("status = ?", entity.JobStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get pending analysis jobs: %w", err)
	}
	return jobs, nil
}

// GetFailedJobs 获取可重试的失败任务
func (r *AnalysisJobRepository) GetFailedJobs(ctx context.Context, maxRetries int, limit int) ([]*entity.AnalysisJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.AnalysisJobRepository.GetFailedJobs")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var jobs []*entity.AnalysisJob
	if err := db.Where("status = ? AND retry_count < ?", entity.JobStatusFailed, maxRetries).
		Order("updated_at ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get failed analysis jobs: %w", err)
	}
	return jobs, nil
}
