// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bazi-engine-api/internal/infrastructure/persistence/milvus"
	"bazi-engine-api/internal/infrastructure/persistence/postgres"
	"bazi-engine-api/internal/infrastructure/persistence/redis"
)

// HealthHandler 健康检查处理器，排盘依赖 Postgres 与 Redis，Milvus 仅影响相似检索
type HealthHandler struct {
	version string
	pg      *postgres.Client
	redis   *redis.Client
	milvus  *milvus.Client
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(version string, pg *postgres.Client, redisClient *redis.Client, milvusClient *milvus.Client) *HealthHandler {
	return &HealthHandler{
		version: version,
		pg:      pg,
		redis:   redisClient,
		milvus:  milvusClient,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// probe 执行单项依赖探测并记录耗时，degraded 表示失败不阻断就绪态
func probe(ctx context.Context, check func(context.Context) error, degraded bool) *readinessCheck {
	if check == nil {
		return &readinessCheck{Status: "missing", Error: "client not configured"}
	}
	start := time.Now()
	err := check(ctx)
	rc := &readinessCheck{LatencyMs: time.Since(start).Milliseconds()}
	switch {
	case err == nil:
		rc.Status = "ok"
	case degraded:
		rc.Status = "degraded"
		rc.Error = err.Error()
	default:
		rc.Status = "error"
		rc.Error = err.Error()
	}
	return rc
}

// Health 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Description 检查服务是否可以接收流量，Postgres 与 Redis 任一不可达即未就绪
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{}

	var pgCheck, redisCheck func(context.Context) error
	if h.pg != nil {
		pgCheck = h.pg.HealthCheck
	}
	if h.redis != nil {
		redisCheck = h.redis.HealthCheck
	}
	checks["postgres"] = probe(ctx, pgCheck, false)
	checks["redis"] = probe(ctx, redisCheck, false)

	// Milvus 可选，仅在启用相似检索时参与探测
	if h.milvus != nil {
		checks["milvus"] = probe(ctx, h.milvus.HealthCheck, true)
	} else {
		checks["milvus"] = &readinessCheck{Status: "disabled"}
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	for name, rc := range checks {
		if name == "milvus" {
			continue
		}
		if rc.Status != "ok" {
			resp.Status = "not_ready"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Description 检查服务进程是否存活
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}
