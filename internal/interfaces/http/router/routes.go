// Package router 提供 HTTP 路由配置
package router

import (
	"bazi-engine-api/internal/interfaces/http/handler"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	analysisHandler *handler.AnalysisHandler,
	chartHandler *handler.ChartHandler,
	jobHandler *handler.JobHandler,
) {
	// 排盘
	analyses := v1.Group("/analyses")
	{
		analyses.POST("", analysisHandler.Analyze)
		analyses.POST("/civil", analysisHandler.AnalyzeCivil)
	}

	// 命盘归档
	charts := v1.Group("/charts")
	{
		charts.GET("", chartHandler.ListCharts)
		charts.GET("/stats/patterns", chartHandler.PatternStats)
		charts.GET("/:id", chartHandler.GetChart)
		charts.DELETE("/:id", chartHandler.DeleteChart)
		charts.GET("/:id/similar", chartHandler.Similar)
	}

	// 批量任务
	jobs := v1.Group("/jobs")
	{
		jobs.POST("/batch", jobHandler.SubmitBatch)
		jobs.GET("/:id", jobHandler.GetJob)
	}
}
