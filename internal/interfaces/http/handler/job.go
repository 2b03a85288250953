// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"bazi-engine-api/internal/application/batch"
	"bazi-engine-api/internal/interfaces/http/dto"
)

// JobHandler 批量排盘任务处理器
type JobHandler struct {
	svc *batch.Service
}

// NewJobHandler 创建批量排盘任务处理器
func NewJobHandler(svc *batch.Service) *JobHandler {
	return &JobHandler{svc: svc}
}

// SubmitBatch 提交批量排盘任务
// @Summary 提交批量排盘任务
// @Description 受理一批命盘输入，逐项异步排盘，返回任务标识供轮询
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body dto.BatchSubmitRequest true "批量排盘请求"
// @Success 202 {object} dto.Response[dto.SubmittedJobResponse]
// @Failure 400 {object} dto.ErrorResponse "输入为空或超出单批上限"
// @Failure 503 {object} dto.ErrorResponse "批量队列未启用"
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/jobs/batch [post]
func (h *JobHandler) SubmitBatch(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.BatchSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	job, err := h.svc.Submit(ctx, req.ToChartSpecs(), req.Persist)
	if err != nil {
		respondError(c, ctx, "failed to submit batch job", err)
		return
	}

	dto.Accepted(c, dto.ToSubmittedJobResponse(job))
}

// GetJob 获取批量任务详情
// @Summary 获取批量任务详情
// @Description 获取批量排盘任务的状态、进度与逐项结果
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.JobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := dto.BindID(c)

	job, err := h.svc.GetJob(ctx, jobID)
	if err != nil {
		respondError(c, ctx, "failed to get job", err)
		return
	}

	dto.Success(c, dto.ToJobResponse(job))
}
