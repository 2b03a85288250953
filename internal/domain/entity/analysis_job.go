// Package entity 定义领域实体
package entity

import (
	"time"
)

// JobStatus 批量任务状态
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusPartial   JobStatus = "partial"
)

// BatchChartSpec 批量任务中的单个命盘输入
type BatchChartSpec struct {
	Year   string `json:"year"`
	Month  string `json:"month"`
	Day    string `json:"day"`
	Hour   string `json:"hour,omitempty"`
	Gender string `json:"gender"`
	Tag    string `json:"tag,omitempty"`
}

// JobItemResult 批量任务单项结果，成功携带归档与判定摘要，失败携带错误
type JobItemResult struct {
	Index    int    `json:"index"`
	Tag      string `json:"tag,omitempty"`
	ChartID  string `json:"chart_id,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
	Strength string `json:"strength,omitempty"`
	Error    string `json:"error,omitempty"`
}

// AnalysisJob 批量排盘任务
type AnalysisJob struct {
	ID           string           `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Status       JobStatus        `json:"status" gorm:"type:varchar(16);index;default:'pending'"`
	Charts       []BatchChartSpec `json:"charts" gorm:"type:jsonb;serializer:json"`
	Results      []JobItemResult  `json:"results,omitempty" gorm:"type:jsonb;serializer:json"`
	Total        int              `json:"total"`
	Completed    int              `json:"completed" gorm:"default:0"`
	Failed       int              `json:"failed" gorm:"default:0"`
	Persist      bool             `json:"persist"`
	ErrorMessage string           `json:"error_message,omitempty" gorm:"type:text"`
	RetryCount   int              `json:"retry_count" gorm:"default:0"`
	CreatedAt    time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
}

// TableName 指定表名
func (AnalysisJob) TableName() string {
	return "analysis_jobs"
}

// NewAnalysisJob 创建批量排盘任务
func NewAnalysisJob(charts []BatchChartSpec, persist bool) *AnalysisJob {
	return &AnalysisJob{
		Status:    JobStatusPending,
		Charts:    charts,
		Total:     len(charts),
		Persist:   persist,
		CreatedAt: time.Now(),
	}
}

// Start 标记任务开始执行
func (j *AnalysisJob) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
}

// AddResult 记录单项结果并更新计数
func (j *AnalysisJob) AddResult(item JobItemResult) {
	j.Results = append(j.Results, item)
	if item.Error != "" {
		j.Failed++
	} else {
		j.Completed++
	}
}

// Finish 按单项完成情况收敛终态：全部成功为 completed，
// 全部失败为 failed，否则 partial。
func (j *AnalysisJob) Finish() {
	now := time.Now()
	j.FinishedAt = &now
	switch {
	case j.Failed == 0:
		j.Status = JobStatusCompleted
	case j.Completed == 0:
		j.Status = JobStatusFailed
	default:
		j.Status = JobStatusPartial
	}
}

// Fail 整体失败（任务级错误，而非单项错误）
func (j *AnalysisJob) Fail(errMsg string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.FinishedAt = &now
}

// Retry 重置任务以便重新投递
func (j *AnalysisJob) Retry() {
	j.RetryCount++
	j.Status = JobStatusPending
	j.Results = nil
	j.Completed = 0
	j.Failed = 0
	j.ErrorMessage = ""
	j.StartedAt = nil
	j.FinishedAt = nil
}

// CanRetry 检查是否可以重试
func (j *AnalysisJob) CanRetry(maxRetries int) bool {
	return j.RetryCount < maxRetries && j.Status == JobStatusFailed
}

// Progress 任务进度（0-100）
func (j *AnalysisJob) Progress() int {
	if j.Total == 0 {
		return 100
	}
	return (j.Completed + j.Failed) * 100 / j.Total
}
