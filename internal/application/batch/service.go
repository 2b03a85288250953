package batch

import (
	"context"
	"fmt"

	"bazi-engine-api/internal/application/analysis"
	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/entity"
	"bazi-engine-api/internal/domain/repository"
	"bazi-engine-api/pkg/errors"
	"bazi-engine-api/pkg/logger"
	"bazi-engine-api/pkg/metrics"
)

// MaxBatchCharts 单个批量任务允许的命盘数上限
const MaxBatchCharts = 500

// Service 批量排盘服务。提交侧创建任务并逐项投递消息，
// 消费侧执行排盘并以幂等附加收敛任务状态。
type Service struct {
	analyzer *analysis.Service
	jobs     repository.AnalysisJobRepository
	queue    JobQueue
}

// NewService 创建批量排盘服务
func NewService(analyzer *analysis.Service, jobs repository.AnalysisJobRepository, queue JobQueue) *Service {
	return &Service{analyzer: analyzer, jobs: jobs, queue: queue}
}

// Enabled 批量任务能力是否可用
func (s *Service) Enabled() bool {
	return s.jobs != nil && s.queue != nil
}

// Submit 提交批量任务：创建任务记录后逐项投递消息。
// 投递失败的项立即记为失败结果，保证任务计数最终收敛。
func (s *Service) Submit(ctx context.Context, charts []entity.BatchChartSpec, persist bool) (*entity.AnalysisJob, error) {
	if !s.Enabled() {
		return nil, ErrQueueDisabled
	}
	if len(charts) == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "批量任务至少包含一个命盘")
	}
	if len(charts) > MaxBatchCharts {
		return nil, errors.New(errors.CodeInvalidInput, fmt.Sprintf("批量任务最多 %d 个命盘", MaxBatchCharts))
	}

	job := entity.NewAnalysisJob(charts, persist)
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "批量任务创建失败")
	}
	metrics.BatchJobTotal.WithLabelValues("submitted").Inc()

	for i := range charts {
		if err := s.queue.PublishItem(ctx, ItemMessage{JobID: job.ID, Index: i}); err != nil {
			logger.Warn(ctx, "批量任务消息投递失败", "job_id", job.ID, "index", i, "error", err)
			s.recordPublishFailure(ctx, job.ID, i, charts[i].Tag, err)
		}
	}
	return job, nil
}

// GetJob 查询批量任务
func (s *Service) GetJob(ctx context.Context, id string) (*entity.AnalysisJob, error) {
	if s.jobs == nil {
		return nil, ErrQueueDisabled
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "批量任务查询失败")
	}
	if job == nil {
		return nil, errors.New(errors.CodeJobNotFound, "批量任务不存在")
	}
	return job, nil
}

// ProcessItem 消费单项消息：执行排盘并附加结果。排盘失败记入
// 单项错误而非返回错误，仅基础设施故障返回错误以触发重试。
func (s *Service) ProcessItem(ctx context.Context, msg ItemMessage) error {
	job, err := s.GetJob(ctx, msg.JobID)
	if err != nil {
		return err
	}
	if msg.Index < 0 || msg.Index >= len(job.Charts) {
		return errors.New(errors.CodeInvalidInput, fmt.Sprintf("任务 %s 不存在第 %d 项", msg.JobID, msg.Index))
	}

	spec := job.Charts[msg.Index]
	item := entity.JobItemResult{Index: msg.Index, Tag: spec.Tag}

	res, err := s.analyzer.Analyze(ctx, analysis.AnalyzeRequest{
		AnalyzeInput: analysis.AnalyzeInput{
			Year:   spec.Year,
			Month:  spec.Month,
			Day:    spec.Day,
			Hour:   spec.Hour,
			Gender: chart.Gender(spec.Gender),
		},
		Persist: job.Persist,
	})
	if err != nil {
		item.Error = err.Error()
	} else {
		item.ChartID = res.ChartID
		if p := res.Profile.Pattern; p != nil && p.Result != nil {
			item.Pattern = string(p.Result.Main)
		}
		if st := res.Profile.Strength; st != nil {
			item.Strength = string(st.Verdict)
		}
	}

	updated, appended, err := s.jobs.AppendResult(ctx, msg.JobID, item)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "批量任务结果写入失败")
	}
	if appended && isTerminal(updated.Status) {
		s.finalize(ctx, updated)
	}
	return nil
}

// RequeuePending 补投递 pending 任务的全部消息（进程重启恢复）。
// 幂等附加保证重复消息不重复计数。
func (s *Service) RequeuePending(ctx context.Context, limit int) error {
	if !s.Enabled() {
		return ErrQueueDisabled
	}
	jobs, err := s.jobs.GetPendingJobs(ctx, limit)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "待处理任务查询失败")
	}
	for _, job := range jobs {
		s.publishAll(ctx, job)
	}
	return nil
}

// RetryFailed 重置并重投可重试的失败任务
func (s *Service) RetryFailed(ctx context.Context, maxRetries, limit int) error {
	if !s.Enabled() {
		return ErrQueueDisabled
	}
	jobs, err := s.jobs.GetFailedJobs(ctx, maxRetries, limit)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "失败任务查询失败")
	}
	for _, job := range jobs {
		if !job.CanRetry(maxRetries) {
			continue
		}
		job.Retry()
		if err := s.jobs.Update(ctx, job); err != nil {
			logger.Warn(ctx, "失败任务重置失败", "job_id", job.ID, "error", err)
			continue
		}
		s.publishAll(ctx, job)
	}
	return nil
}

func (s *Service) publishAll(ctx context.Context, job *entity.AnalysisJob) {
	for i := range job.Charts {
		if err := s.queue.PublishItem(ctx, ItemMessage{JobID: job.ID, Index: i}); err != nil {
			logger.Warn(ctx, "批量任务消息补投递失败", "job_id", job.ID, "index", i, "error", err)
		}
	}
}

func (s *Service) recordPublishFailure(ctx context.Context, jobID string, index int, tag string, cause error) {
	updated, appended, err := s.jobs.AppendResult(ctx, jobID, entity.JobItemResult{
		Index: index,
		Tag:   tag,
		Error: "消息投递失败: " + cause.Error(),
	})
	if err != nil {
		logger.Error(ctx, "批量任务失败项记录失败", err, "job_id", jobID, "index", index)
		return
	}
	if appended && isTerminal(updated.Status) {
		s.finalize(ctx, updated)
	}
}

// finalize 任务收敛终态后的度量与日志
func (s *Service) finalize(ctx context.Context, job *entity.AnalysisJob) {
	metrics.BatchJobTotal.WithLabelValues(string(job.Status)).Inc()
	metrics.BatchJobCharts.WithLabelValues(string(job.Status)).Observe(float64(job.Total))
	logger.Info(ctx, "批量任务完成",
		"job_id", job.ID,
		"status", string(job.Status),
		"total", job.Total,
		"completed", job.Completed,
		"failed", job.Failed)
}

func isTerminal(st entity.JobStatus) bool {
	return st == entity.JobStatusCompleted || st == entity.JobStatusFailed || st == entity.JobStatusPartial
}
