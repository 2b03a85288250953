// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"bazi-engine-api/internal/application/analysis"
	"bazi-engine-api/internal/interfaces/http/dto"
)

// AnalysisHandler 排盘处理器
type AnalysisHandler struct {
	svc *analysis.Service
}

// NewAnalysisHandler 创建排盘处理器
func NewAnalysisHandler(svc *analysis.Service) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

// Analyze 四柱排盘
// @Summary 四柱排盘
// @Description 按四柱干支与性别执行完整命盘分析，时柱可缺省
// @Tags Analyses
// @Accept json
// @Produce json
// @Param request body dto.AnalyzeRequest true "排盘请求"
// @Success 200 {object} dto.Response[dto.AnalyzeResponse]
// @Failure 400 {object} dto.ErrorResponse "干支或性别不合法"
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/analyses [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.Analyze(ctx, req.ToAnalyzeRequest())
	if err != nil {
		respondError(c, ctx, "failed to analyze chart", err)
		return
	}

	dto.Success(c, dto.ToAnalyzeResponse(res))
}

// AnalyzeCivil 公历排盘
// @Summary 公历生辰排盘
// @Description 将公历生辰换算为四柱后执行完整命盘分析
// @Tags Analyses
// @Accept json
// @Produce json
// @Param request body dto.CivilAnalyzeRequest true "公历排盘请求"
// @Success 200 {object} dto.Response[dto.AnalyzeResponse]
// @Failure 400 {object} dto.ErrorResponse "日期越界或不合法"
// @Failure 503 {object} dto.ErrorResponse "历法换算能力未启用"
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/analyses/civil [post]
func (h *AnalysisHandler) AnalyzeCivil(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CivilAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.AnalyzeCivil(ctx, req.ToCivilDate(), req.Persist)
	if err != nil {
		respondError(c, ctx, "failed to analyze civil date", err)
		return
	}

	dto.Success(c, dto.ToAnalyzeResponse(res))
}
