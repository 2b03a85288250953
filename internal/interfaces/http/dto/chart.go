// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bazi-engine-api/internal/application/analysis"
	"bazi-engine-api/internal/domain/entity"
	"bazi-engine-api/internal/domain/repository"
)

// ChartListRequest 命盘归档检索条件
type ChartListRequest struct {
	DayMaster        string `form:"day_master"`
	Pattern          string `form:"pattern"`
	Strength         string `form:"strength"`
	Gender           string `form:"gender"`
	Broken           *bool  `form:"broken"`
	FavorableElement string `form:"favorable_element"`
	VoidBranch       string `form:"void_branch"`
	SortBy           string `form:"sort_by"`
	Order            string `form:"order"`
}

// chartSortFields 允许排序的归档列，防止排序参数注入
var chartSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"day_master": true,
	"pattern":    true,
}

// BindChartListRequest 从 Gin Context 绑定检索条件
func BindChartListRequest(c *gin.Context) (*ChartListRequest, error) {
	var req ChartListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ToFilter 转换为仓储层过滤条件，白名单外的排序字段被忽略
func (r *ChartListRequest) ToFilter() *repository.ChartFilter {
	f := &repository.ChartFilter{
		DayMaster:        r.DayMaster,
		Pattern:          r.Pattern,
		Strength:         r.Strength,
		Gender:           r.Gender,
		Broken:           r.Broken,
		FavorableElement: r.FavorableElement,
		VoidBranch:       r.VoidBranch,
	}
	if chartSortFields[r.SortBy] {
		f.Sort = repository.NewSort(r.SortBy, repository.SortOrder(strings.ToUpper(r.Order)))
	}
	return f
}

// ChartResponse 归档命盘摘要
type ChartResponse struct {
	ID                  string    `json:"id"`
	ChartKey            string    `json:"chart_key"`
	YearPillar          string    `json:"year_pillar"`
	MonthPillar         string    `json:"month_pillar"`
	DayPillar           string    `json:"day_pillar"`
	HourPillar          string    `json:"hour_pillar,omitempty"`
	HourKnown           bool      `json:"hour_known"`
	Gender              string    `json:"gender"`
	DayMaster           string    `json:"day_master"`
	DayElement          string    `json:"day_wuxing"`
	Pattern             string    `json:"pattern"`
	Confidence          string    `json:"confidence"`
	Broken              bool      `json:"broken"`
	Strength            string    `json:"strength"`
	VoidBranches        []string  `json:"void_branches"`
	FavorableElements   []string  `json:"favorable_elements"`
	UnfavorableElements []string  `json:"unfavorable_elements"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ChartDetailResponse 归档命盘详情，附带完整分析画像
type ChartDetailResponse struct {
	ChartResponse
	Profile json.RawMessage `json:"profile"`
}

// ToChartResponse 将归档记录转换为摘要 DTO
func ToChartResponse(r *entity.ChartRecord) *ChartResponse {
	if r == nil {
		return nil
	}
	return &ChartResponse{
		ID:                  r.ID,
		ChartKey:            r.ChartKey,
		YearPillar:          r.YearPillar,
		MonthPillar:         r.MonthPillar,
		DayPillar:           r.DayPillar,
		HourPillar:          r.HourPillar,
		HourKnown:           r.HourKnown,
		Gender:              r.Gender,
		DayMaster:           r.DayMaster,
		DayElement:          r.DayElement,
		Pattern:             r.Pattern,
		Confidence:          r.Confidence,
		Broken:              r.Broken,
		Strength:            r.Strength,
		VoidBranches:        r.VoidBranches,
		FavorableElements:   r.FavorableElements,
		UnfavorableElements: r.UnfavorableElements,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

// ToChartDetailResponse 将归档记录转换为详情 DTO
func ToChartDetailResponse(r *entity.ChartRecord) *ChartDetailResponse {
	if r == nil {
		return nil
	}
	return &ChartDetailResponse{
		ChartResponse: *ToChartResponse(r),
		Profile:       r.Profile,
	}
}

// ToChartResponses 将归档记录列表转换为摘要 DTO 列表
func ToChartResponses(records []*entity.ChartRecord) []*ChartResponse {
	resp := make([]*ChartResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, ToChartResponse(r))
	}
	return resp
}

// SimilarChartResponse 相似命盘条目，score 为向量距离，越小越相似
type SimilarChartResponse struct {
	Chart *ChartResponse `json:"chart"`
	Score float32        `json:"score"`
}

// ToSimilarChartResponses 将相似检索结果转换为响应 DTO
func ToSimilarChartResponses(items []analysis.SimilarChart) []*SimilarChartResponse {
	resp := make([]*SimilarChartResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, &SimilarChartResponse{
			Chart: ToChartResponse(it.Chart),
			Score: it.Score,
		})
	}
	return resp
}

// PatternStatsResponse 归档命盘主格分布统计
type PatternStatsResponse struct {
	Patterns map[string]int64 `json:"patterns"`
	Total    int64            `json:"total"`
}

// ToPatternStatsResponse 将主格计数转换为统计响应
func ToPatternStatsResponse(counts map[string]int64) *PatternStatsResponse {
	var total int64
	for _, n := range counts {
		total += n
	}
	return &PatternStatsResponse{Patterns: counts, Total: total}
}
