package handler

import (
	"context"
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"bazi-engine-api/internal/application/analysis"
	"bazi-engine-api/internal/application/batch"
	"bazi-engine-api/internal/interfaces/http/dto"
	"bazi-engine-api/pkg/errors"
	"bazi-engine-api/pkg/logger"
)

// respondError 统一错误响应：能力未启用的哨兵错误映射为 503，
// AppError 按其错误码映射状态码，其余按内部错误兜底并记录日志。
func respondError(c *gin.Context, ctx context.Context, msg string, err error) {
	switch {
	case stderrors.Is(err, analysis.ErrArchiveDisabled):
		dto.ServiceUnavailable(c, "chart archive is disabled")
		return
	case stderrors.Is(err, analysis.ErrSimilarDisabled):
		dto.ServiceUnavailable(c, "similar chart search is disabled")
		return
	case stderrors.Is(err, analysis.ErrAlmanacDisabled):
		dto.ServiceUnavailable(c, "civil calendar conversion is disabled")
		return
	case stderrors.Is(err, batch.ErrQueueDisabled):
		dto.ServiceUnavailable(c, "batch job queue is disabled")
		return
	}

	if errors.IsAppError(err) {
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
			Code:    appErr.HTTPStatus,
			Message: appErr.Message,
			TraceID: c.GetString("trace_id"),
		})
		return
	}

	logger.Error(ctx, msg, err)
	dto.InternalError(c, msg)
}
