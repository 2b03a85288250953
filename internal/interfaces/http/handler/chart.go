// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"bazi-engine-api/internal/application/analysis"
	"bazi-engine-api/internal/domain/repository"
	"bazi-engine-api/internal/interfaces/http/dto"
)

// ChartHandler 命盘归档处理器
type ChartHandler struct {
	svc         *analysis.Service
	charts      repository.ChartRepository
	similarTopK int
}

// NewChartHandler 创建命盘归档处理器，similarTopK 为相似检索的默认返回数量
func NewChartHandler(svc *analysis.Service, charts repository.ChartRepository, similarTopK int) *ChartHandler {
	if similarTopK <= 0 {
		similarTopK = analysis.DefaultSimilarTopK
	}
	return &ChartHandler{svc: svc, charts: charts, similarTopK: similarTopK}
}

// ListCharts 检索归档命盘
// @Summary 检索归档命盘
// @Description 按日主、主格、强弱、性别、喜用神、空亡等维度分页检索归档命盘
// @Tags Charts
// @Accept json
// @Produce json
// @Param day_master query string false "日主天干"
// @Param pattern query string false "主格"
// @Param strength query string false "日主强弱"
// @Param gender query string false "性别"
// @Param broken query bool false "是否破格"
// @Param favorable_element query string false "喜用神五行"
// @Param void_branch query string false "空亡地支"
// @Param sort_by query string false "排序字段（created_at/updated_at/day_master/pattern）"
// @Param order query string false "排序方向（asc/desc）"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]dto.ChartResponse]
// @Failure 503 {object} dto.ErrorResponse "归档能力未启用"
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/charts [get]
func (h *ChartHandler) ListCharts(c *gin.Context) {
	ctx := c.Request.Context()

	req, err := dto.BindChartListRequest(c)
	if err != nil {
		dto.BadRequest(c, "invalid query: "+err.Error())
		return
	}
	pageReq := dto.BindPage(c)

	result, err := h.svc.ListCharts(ctx, req.ToFilter(), repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		respondError(c, ctx, "failed to list charts", err)
		return
	}

	meta := dto.NewPageMeta(result.Page, result.PageSize, int(result.Total))
	dto.SuccessWithPage(c, dto.ToChartResponses(result.Items), meta)
}

// GetChart 获取归档命盘详情
// @Summary 获取归档命盘详情
// @Description 获取指定归档命盘的完整分析画像
// @Tags Charts
// @Accept json
// @Produce json
// @Param id path string true "命盘 ID"
// @Success 200 {object} dto.Response[dto.ChartDetailResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse "归档能力未启用"
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/charts/{id} [get]
func (h *ChartHandler) GetChart(c *gin.Context) {
	ctx := c.Request.Context()
	chartID := dto.BindID(c)

	record, err := h.svc.GetChart(ctx, chartID)
	if err != nil {
		respondError(c, ctx, "failed to get chart", err)
		return
	}

	dto.Success(c, dto.ToChartDetailResponse(record))
}

// DeleteChart 删除归档命盘
// @Summary 删除归档命盘
// @Description 删除归档记录并同步清理画像缓存与特征向量
// @Tags Charts
// @Accept json
// @Produce json
// @Param id path string true "命盘 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse "归档能力未启用"
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/charts/{id} [delete]
func (h *ChartHandler) DeleteChart(c *gin.Context) {
	ctx := c.Request.Context()
	chartID := dto.BindID(c)

	if err := h.svc.DeleteChart(ctx, chartID); err != nil {
		respondError(c, ctx, "failed to delete chart", err)
		return
	}

	dto.NoContent(c)
}

// Similar 检索相似命盘
// @Summary 检索相似命盘
// @Description 基于十神分布与五行旺衰特征向量检索最相似的归档命盘
// @Tags Charts
// @Accept json
// @Produce json
// @Param id path string true "命盘 ID"
// @Param top_k query int false "返回数量，缺省取服务配置"
// @Success 200 {object} dto.Response[[]dto.SimilarChartResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse "相似检索能力未启用"
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/charts/{id}/similar [get]
func (h *ChartHandler) Similar(c *gin.Context) {
	ctx := c.Request.Context()
	chartID := dto.BindID(c)
	topK := dto.BindTopK(c, h.similarTopK)

	items, err := h.svc.Similar(ctx, chartID, topK)
	if err != nil {
		respondError(c, ctx, "failed to search similar charts", err)
		return
	}

	dto.Success(c, dto.ToSimilarChartResponses(items))
}

// PatternStats 主格分布统计
// @Summary 主格分布统计
// @Description 统计归档命盘的主格分布
// @Tags Charts
// @Accept json
// @Produce json
// @Success 200 {object} dto.Response[dto.PatternStatsResponse]
// @Failure 503 {object} dto.ErrorResponse "归档能力未启用"
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/charts/stats/patterns [get]
func (h *ChartHandler) PatternStats(c *gin.Context) {
	ctx := c.Request.Context()

	if h.charts == nil {
		dto.ServiceUnavailable(c, "chart archive is disabled")
		return
	}

	counts, err := h.charts.CountByPattern(ctx)
	if err != nil {
		respondError(c, ctx, "failed to count patterns", err)
		return
	}

	dto.Success(c, dto.ToPatternStatsResponse(counts))
}
