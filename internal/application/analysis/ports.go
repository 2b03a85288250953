package analysis

import (
	"context"
	"time"

	"bazi-engine-api/internal/domain/chart"
)

// ProfileCache 画像缓存端口。Get 未命中返回 (nil, nil)。
type ProfileCache interface {
	// Get 按归一化键读取画像
	Get(ctx context.Context, key string) (*Profile, error)

	// Set 写入画像
	Set(ctx context.Context, key string, profile *Profile, ttl time.Duration) error

	// Delete 删除画像
	Delete(ctx context.Context, key string) error
}

// FeatureIndex 命盘特征向量索引端口（相似命盘检索）
type FeatureIndex interface {
	// Index 写入或覆盖命盘特征向量
	Index(ctx context.Context, chartID string, vector []float32) error

	// Search 按 L2 距离检索最近的 topK 个命盘
	Search(ctx context.Context, vector []float32, topK int) ([]FeatureMatch, error)

	// Remove 删除命盘特征向量
	Remove(ctx context.Context, chartID string) error
}

// FeatureMatch 相似命盘匹配结果，Score 为 L2 距离，越小越相似
type FeatureMatch struct {
	ChartID string  `json:"chart_id"`
	Score   float32 `json:"score"`
}

// Almanac 历法端口：公历出生时间到四柱与大運的确定性换算
type Almanac interface {
	// Convert 换算公历出生时间
	Convert(civil CivilDate) (*CivilResult, error)
}

// CivilDate 公历出生时间，Hour 传 -1 表示时辰不详
type CivilDate struct {
	Year   int          `json:"year"`
	Month  int          `json:"month"`
	Day    int          `json:"day"`
	Hour   int          `json:"hour"`
	Gender chart.Gender `json:"gender"`
}

// HourKnown 是否携带出生时辰
func (d CivilDate) HourKnown() bool {
	return d.Hour >= 0
}

// CivilResult 公历换算结果。NextDay 表示 23 时起算次日日柱（晚子時）。
type CivilResult struct {
	Year       chart.Pillar `json:"year"`
	Month      chart.Pillar `json:"month"`
	Day        chart.Pillar `json:"day"`
	Hour       chart.Pillar `json:"hour"`
	HourKnown  bool         `json:"hour_known"`
	NextDay    bool         `json:"next_day"`
	Lunar      string       `json:"lunar"`
	LuckCycles []LuckCycle  `json:"luck_cycles"`
}
