// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"bazi-engine-api/internal/domain/entity"
)

// AnalysisJobRepository 批量排盘任务仓储接口
type AnalysisJobRepository interface {
	// Create 创建任务
	Create(ctx context.Context, job *entity.AnalysisJob) error

	// GetByID 根据 ID 获取任务，未找到返回 (nil, nil)
	GetByID(ctx context.Context, id string) (*entity.AnalysisJob, error)

	// Update 更新任务（状态、结果与计数）
	Update(ctx context.Context, job *entity.AnalysisJob) error

	// AppendResult 以行锁附加单项结果并更新计数：首项将任务置为
	// running，全部项就绪时收敛终态。重复 index 不重复计数（幂等），
	// 此时第二返回值为 false。返回更新后的任务。
	AppendResult(ctx context.Context, jobID string, item entity.JobItemResult) (*entity.AnalysisJob, bool, error)

	// UpdateStatus 更新任务状态
	UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error

	// GetPendingJobs 获取待处理任务（进程重启后补投递）
	GetPendingJobs(ctx context.Context, limit int) ([]*entity.AnalysisJob, error)

	// GetFailedJobs 获取可重试的失败任务
	GetFailedJobs(ctx context.Context, maxRetries int, limit int) ([]*entity.AnalysisJob, error)
}
