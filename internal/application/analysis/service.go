package analysis

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lib/pq"

	"bazi-engine-api/internal/domain/entity"
	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/internal/domain/repository"
	"bazi-engine-api/pkg/errors"
	"bazi-engine-api/pkg/logger"
	"bazi-engine-api/pkg/metrics"
)

const cacheKeyPrefix = "bazi:profile:"

// DefaultCacheTTL 画像缓存默认有效期
const DefaultCacheTTL = 24 * time.Hour

// DefaultSimilarTopK 相似检索默认条数
const DefaultSimilarTopK = 10

// AnalyzeRequest 排盘请求，Persist 为真时归档 ChartRecord
type AnalyzeRequest struct {
	AnalyzeInput
	Persist bool `json:"persist,omitempty"`
}

// AnalyzeResult 排盘结果，归档时携带记录 ID
type AnalyzeResult struct {
	Profile *Profile `json:"profile"`
	ChartID string   `json:"chart_id,omitempty"`
	Cached  bool     `json:"cached"`
}

// SimilarChart 相似命盘条目，Score 为 L2 距离，越小越相似
type SimilarChart struct {
	Chart *entity.ChartRecord `json:"chart"`
	Score float32             `json:"score"`
}

// Service 排盘应用服务：在纯计算引擎之上叠加缓存读穿、归档、
// 特征向量索引与相似检索、公历换算。cache、charts、index、almanac
// 均允许为 nil，对应能力降级关闭。
type Service struct {
	engine   *Engine
	cache    ProfileCache
	charts   repository.ChartRepository
	index    FeatureIndex
	almanac  Almanac
	cacheTTL time.Duration
	group    singleflight.Group
}

// NewService 创建排盘服务
func NewService(engine *Engine, cache ProfileCache, charts repository.ChartRepository, index FeatureIndex, almanac Almanac, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Service{
		engine:   engine,
		cache:    cache,
		charts:   charts,
		index:    index,
		almanac:  almanac,
		cacheTTL: cacheTTL,
	}
}

// Analyze 四柱排盘，缓存读穿并以 singleflight 合并并发同盘请求
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	return s.analyze(ctx, req, "pillars")
}

// AnalyzeCivil 公历排盘：历法换算出四柱后复用四柱管线，
// 大運与公历回显叠加在画像副本上，不进缓存。
func (s *Service) AnalyzeCivil(ctx context.Context, civil CivilDate, persist bool) (*AnalyzeResult, error) {
	if s.almanac == nil {
		return nil, ErrAlmanacDisabled
	}

	conv, err := s.almanac.Convert(civil)
	if err != nil {
		metrics.AnalysisTotal.WithLabelValues("civil", "error").Inc()
		return nil, err
	}

	in := AnalyzeInput{
		Year:   conv.Year.String(),
		Month:  conv.Month.String(),
		Day:    conv.Day.String(),
		Gender: civil.Gender,
	}
	if conv.HourKnown {
		in.Hour = conv.Hour.String()
	}

	res, err := s.analyze(ctx, AnalyzeRequest{AnalyzeInput: in, Persist: persist}, "civil")
	if err != nil {
		return nil, err
	}

	enriched := *res.Profile
	enriched.LuckCycles = conv.LuckCycles
	echo := enriched.Input
	echo.Civil = &CivilEcho{
		Year:    civil.Year,
		Month:   civil.Month,
		Day:     civil.Day,
		Hour:    civil.Hour,
		NextDay: conv.NextDay,
		Lunar:   conv.Lunar,
	}
	enriched.Input = echo
	res.Profile = &enriched
	return res, nil
}

func (s *Service) analyze(ctx context.Context, req AnalyzeRequest, source string) (*AnalyzeResult, error) {
	start := time.Now()
	key := entity.BuildChartKey(req.Year, req.Month, req.Day, req.Hour, string(req.Gender))

	profile, cached, err := s.profileByKey(ctx, key, req.AnalyzeInput)
	if err != nil {
		metrics.AnalysisTotal.WithLabelValues(source, "error").Inc()
		return nil, err
	}

	res := &AnalyzeResult{Profile: profile, Cached: cached}
	if req.Persist {
		id, err := s.archive(ctx, key, req.AnalyzeInput, profile)
		if err != nil {
			metrics.AnalysisTotal.WithLabelValues(source, "error").Inc()
			return nil, err
		}
		res.ChartID = id
	}

	metrics.AnalysisTotal.WithLabelValues(source, "success").Inc()
	metrics.AnalysisDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	return res, nil
}

// profileByKey 缓存读穿。缓存读写失败只告警，不影响排盘结果。
func (s *Service) profileByKey(ctx context.Context, key string, in AnalyzeInput) (*Profile, bool, error) {
	if s.cache != nil {
		p, err := s.cache.Get(ctx, cacheKeyPrefix+key)
		if err != nil {
			logger.Warn(ctx, "画像缓存读取失败", "key", key, "error", err)
		} else if p != nil {
			logger.Debug(ctx, "画像缓存命中", "key", key)
			metrics.ProfileCacheHits.WithLabelValues("hit").Inc()
			return p, true, nil
		}
		metrics.ProfileCacheHits.WithLabelValues("miss").Inc()
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		p, err := s.engine.Analyze(ctx, in)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, cacheKeyPrefix+key, p, s.cacheTTL); err != nil {
				logger.Warn(ctx, "画像缓存写入失败", "key", key, "error", err)
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*Profile), false, nil
}

// archive 归档命盘，同键去重，成功后写入特征向量
func (s *Service) archive(ctx context.Context, key string, in AnalyzeInput, profile *Profile) (string, error) {
	if s.charts == nil {
		return "", ErrArchiveDisabled
	}

	existing, err := s.charts.GetByKey(ctx, key)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeDatabaseError, "命盘归档查重失败")
	}
	if existing != nil {
		return existing.ID, nil
	}

	record, err := newChartRecord(in, profile)
	if err != nil {
		return "", err
	}
	if err := s.charts.Create(ctx, record); err != nil {
		return "", errors.Wrap(err, errors.CodeDatabaseError, "命盘归档失败")
	}
	s.indexRecord(logger.WithContext(ctx, logger.ChartIDKey, record.ID), record.ID, profile)
	return record.ID, nil
}

// indexRecord 写入特征向量，失败只告警
func (s *Service) indexRecord(ctx context.Context, chartID string, profile *Profile) {
	if s.index == nil {
		return
	}
	vec := FeatureVector(profile)
	if vec == nil {
		return
	}
	if err := s.index.Index(ctx, chartID, vec); err != nil {
		logger.Warn(ctx, "命盘特征向量写入失败", "chart_id", chartID, "error", err)
	}
}

// GetChart 获取归档命盘
func (s *Service) GetChart(ctx context.Context, id string) (*entity.ChartRecord, error) {
	if s.charts == nil {
		return nil, ErrArchiveDisabled
	}
	record, err := s.charts.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "命盘查询失败")
	}
	if record == nil {
		return nil, errors.New(errors.CodeChartNotFound, "命盘不存在")
	}
	return record, nil
}

// ListCharts 按条件分页检索归档命盘
func (s *Service) ListCharts(ctx context.Context, filter *repository.ChartFilter, page repository.Pagination) (*repository.PagedResult[*entity.ChartRecord], error) {
	if s.charts == nil {
		return nil, ErrArchiveDisabled
	}
	result, err := s.charts.List(ctx, filter, page)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "命盘检索失败")
	}
	return result, nil
}

// DeleteChart 删除归档命盘，连带清理缓存与特征向量
func (s *Service) DeleteChart(ctx context.Context, id string) error {
	record, err := s.GetChart(ctx, id)
	if err != nil {
		return err
	}
	if err := s.charts.Delete(ctx, id); err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "命盘删除失败")
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKeyPrefix+record.Key()); err != nil {
			logger.Warn(ctx, "画像缓存删除失败", "chart_id", id, "error", err)
		}
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			logger.Warn(ctx, "命盘特征向量删除失败", "chart_id", id, "error", err)
		}
	}
	return nil
}

// Similar 检索与指定归档命盘最相似的 topK 个命盘，排除其自身
func (s *Service) Similar(ctx context.Context, chartID string, topK int) ([]SimilarChart, error) {
	if s.index == nil || s.charts == nil {
		return nil, ErrSimilarDisabled
	}
	if topK <= 0 {
		topK = DefaultSimilarTopK
	}

	record, err := s.GetChart(ctx, chartID)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := json.Unmarshal(record.Profile, &profile); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternalError, "画像反序列化失败")
	}
	vec := FeatureVector(&profile)
	if vec == nil {
		return nil, errors.New(errors.CodeInternalError, "画像缺少统计段，无法提取特征")
	}

	matches, err := s.index.Search(ctx, vec, topK+1)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeVectorDBError, "相似命盘检索失败")
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.ChartID == chartID {
			continue
		}
		ids = append(ids, m.ChartID)
	}
	if len(ids) > topK {
		ids = ids[:topK]
	}
	if len(ids) == 0 {
		return []SimilarChart{}, nil
	}

	records, err := s.charts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "相似命盘查询失败")
	}
	byID := make(map[string]*entity.ChartRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	out := make([]SimilarChart, 0, len(ids))
	for _, m := range matches {
		r, ok := byID[m.ChartID]
		if !ok {
			continue
		}
		out = append(out, SimilarChart{Chart: r, Score: m.Score})
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

// newChartRecord 构造归档记录：完整画像进 JSONB，
// 检索维度冗余为独立列。
func newChartRecord(in AnalyzeInput, profile *Profile) (*entity.ChartRecord, error) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternalError, "画像序列化失败")
	}

	record := entity.NewChartRecord(in.Year, in.Month, in.Day, in.Hour, string(in.Gender))
	record.Profile = raw

	if p := profile.Pattern; p != nil && p.Result != nil {
		record.Pattern = string(p.Result.Main)
		record.Confidence = string(p.Result.Confidence)
		if p.Broken != nil {
			record.Broken = p.Broken.IsBroken
		}
	}
	if st := profile.Strength; st != nil {
		record.DayMaster = string(st.DayMaster)
		record.DayElement = string(st.DayElement)
		record.Strength = string(st.Verdict)
	}
	if ys := profile.YongShen; ys != nil && ys.XiJi != nil {
		record.FavorableElements = pq.StringArray(elementsToStrings(ys.XiJi.Xi))
		record.UnfavorableElements = pq.StringArray(elementsToStrings(ys.XiJi.Ji))
	}
	if v := profile.Voids; v != nil {
		record.VoidBranches = pq.StringArray(branchesToStrings(v.VoidBranches))
	}
	return record, nil
}

func elementsToStrings(elems []ganzhi.Element) []string {
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		out = append(out, string(e))
	}
	return out
}

func branchesToStrings(branches []ganzhi.Branch) []string {
	out := make([]string, 0, len(branches))
	for _, b := range branches {
		out = append(out, string(b))
	}
	return out
}
