// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"bazi-engine-api/internal/domain/entity"
)

// BatchChartSpec 批量任务中的单个命盘输入
type BatchChartSpec struct {
	Year   string `json:"year" binding:"required"`
	Month  string `json:"month" binding:"required"`
	Day    string `json:"day" binding:"required"`
	Hour   string `json:"hour,omitempty"`
	Gender string `json:"gender" binding:"required,oneof=男 女"`
	Tag    string `json:"tag,omitempty"`
}

// BatchSubmitRequest 批量排盘任务提交请求
type BatchSubmitRequest struct {
	Charts  []BatchChartSpec `json:"charts" binding:"required,min=1,max=500,dive"`
	Persist bool             `json:"persist,omitempty"`
}

// ToChartSpecs 转换为领域层命盘输入列表
func (r *BatchSubmitRequest) ToChartSpecs() []entity.BatchChartSpec {
	specs := make([]entity.BatchChartSpec, 0, len(r.Charts))
	for _, ch := range r.Charts {
		specs = append(specs, entity.BatchChartSpec{
			Year:   ch.Year,
			Month:  ch.Month,
			Day:    ch.Day,
			Hour:   ch.Hour,
			Gender: ch.Gender,
			Tag:    ch.Tag,
		})
	}
	return specs
}

// JobResponse 批量排盘任务响应
type JobResponse struct {
	ID           string                 `json:"id"`
	Status       string                 `json:"status"`
	Total        int                    `json:"total"`
	Completed    int                    `json:"completed"`
	Failed       int                    `json:"failed"`
	Progress     int                    `json:"progress"`
	Persist      bool                   `json:"persist"`
	RetryCount   int                    `json:"retry_count"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Results      []entity.JobItemResult `json:"results,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	StartedAt    time.Time              `json:"started_at,omitempty"`
	FinishedAt   time.Time              `json:"finished_at,omitempty"`
}

// ToJobResponse 将领域实体转换为响应 DTO
func ToJobResponse(j *entity.AnalysisJob) *JobResponse {
	if j == nil {
		return nil
	}

	resp := &JobResponse{
		ID:           j.ID,
		Status:       string(j.Status),
		Total:        j.Total,
		Completed:    j.Completed,
		Failed:       j.Failed,
		Progress:     j.Progress(),
		Persist:      j.Persist,
		RetryCount:   j.RetryCount,
		ErrorMessage: j.ErrorMessage,
		Results:      j.Results,
		CreatedAt:    j.CreatedAt,
	}

	if j.StartedAt != nil {
		resp.StartedAt = *j.StartedAt
	}
	if j.FinishedAt != nil {
		resp.FinishedAt = *j.FinishedAt
	}

	return resp
}

// SubmittedJobResponse 任务受理响应，仅返回任务标识与规模
type SubmittedJobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// ToSubmittedJobResponse 将新建任务转换为受理响应
func ToSubmittedJobResponse(j *entity.AnalysisJob) *SubmittedJobResponse {
	if j == nil {
		return nil
	}
	return &SubmittedJobResponse{
		ID:     j.ID,
		Status: string(j.Status),
		Total:  j.Total,
	}
}
