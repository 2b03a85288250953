package analysis

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/entity"
	"bazi-engine-api/internal/domain/repository"
	apperrors "bazi-engine-api/pkg/errors"
)

type fakeCache struct {
	store  map[string]*Profile
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string]*Profile{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (*Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.store[key], nil
}

func (f *fakeCache) Set(ctx context.Context, key string, p *Profile, ttl time.Duration) error {
	f.store[key] = p
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.store, key)
	return nil
}

type fakeChartRepo struct {
	records map[string]*entity.ChartRecord
	nextID  int
}

func newFakeChartRepo() *fakeChartRepo {
	return &fakeChartRepo{records: map[string]*entity.ChartRecord{}}
}

func (f *fakeChartRepo) Create(ctx context.Context, r *entity.ChartRecord) error {
	f.nextID++
	if r.ID == "" {
		r.ID = fmt.Sprintf("chart-%d", f.nextID)
	}
	f.records[r.ID] = r
	return nil
}

func (f *fakeChartRepo) GetByID(ctx context.Context, id string) (*entity.ChartRecord, error) {
	return f.records[id], nil
}

func (f *fakeChartRepo) GetByKey(ctx context.Context, key string) (*entity.ChartRecord, error) {
	for _, r := range f.records {
		if r.ChartKey == key {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeChartRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.ChartRecord, error) {
	out := make([]*entity.ChartRecord, 0, len(ids))
	for _, id := range ids {
		if r, ok := f.records[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeChartRepo) Delete(ctx context.Context, id string) error {
	delete(f.records, id)
	return nil
}

func (f *fakeChartRepo) List(ctx context.Context, filter *repository.ChartFilter, p repository.Pagination) (*repository.PagedResult[*entity.ChartRecord], error) {
	items := make([]*entity.ChartRecord, 0, len(f.records))
	for _, r := range f.records {
		items = append(items, r)
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (f *fakeChartRepo) CountByPattern(ctx context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	for _, r := range f.records {
		out[r.Pattern]++
	}
	return out, nil
}

type fakeIndex struct {
	vectors map[string][]float32
	removed []string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{vectors: map[string][]float32{}}
}

func (f *fakeIndex) Index(ctx context.Context, chartID string, vec []float32) error {
	f.vectors[chartID] = vec
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, vec []float32, topK int) ([]FeatureMatch, error) {
	type pair struct {
		id   string
		dist float64
	}
	pairs := make([]pair, 0, len(f.vectors))
	for id, v := range f.vectors {
		var d float64
		for i := range v {
			diff := float64(v[i] - vec[i])
			d += diff * diff
		}
		pairs = append(pairs, pair{id, d})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].dist < pairs[j].dist })
	if len(pairs) > topK {
		pairs = pairs[:topK]
	}
	out := make([]FeatureMatch, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, FeatureMatch{ChartID: p.id, Score: float32(p.dist)})
	}
	return out, nil
}

func (f *fakeIndex) Remove(ctx context.Context, chartID string) error {
	delete(f.vectors, chartID)
	f.removed = append(f.removed, chartID)
	return nil
}

type fakeAlmanac struct {
	result *CivilResult
	err    error
}

func (f *fakeAlmanac) Convert(civil CivilDate) (*CivilResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func mustPillar(t *testing.T, s string) chart.Pillar {
	t.Helper()
	p, err := chart.ParsePillar(s)
	require.NoError(t, err)
	return p
}

func c0001Request(persist bool) AnalyzeRequest {
	return AnalyzeRequest{
		AnalyzeInput: AnalyzeInput{
			Year:   "己丑",
			Month:  "己巳",
			Day:    "甲子",
			Hour:   "辛未",
			Gender: chart.Male,
		},
		Persist: persist,
	}
}

func TestServiceCacheReadThrough(t *testing.T) {
	cache := newFakeCache()
	svc := NewService(NewEngine(), cache, nil, nil, nil, time.Minute)
	ctx := context.Background()

	first, err := svc.Analyze(ctx, c0001Request(false))
	require.NoError(t, err)
	assert.False(t, first.Cached)

	key := cacheKeyPrefix + entity.BuildChartKey("己丑", "己巳", "甲子", "辛未", "男")
	require.Contains(t, cache.store, key)

	second, err := svc.Analyze(ctx, c0001Request(false))
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Same(t, cache.store[key], second.Profile)
}

func TestServiceCacheFailureFallsThrough(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = fmt.Errorf("redis: connection refused")
	svc := NewService(NewEngine(), cache, nil, nil, nil, time.Minute)

	res, err := svc.Analyze(context.Background(), c0001Request(false))
	require.NoError(t, err)
	assert.False(t, res.Cached)
	require.NotNil(t, res.Profile)
}

func TestServicePersistArchivesAndIndexes(t *testing.T) {
	repo := newFakeChartRepo()
	index := newFakeIndex()
	svc := NewService(NewEngine(), nil, repo, index, nil, time.Minute)
	ctx := context.Background()

	res, err := svc.Analyze(ctx, c0001Request(true))
	require.NoError(t, err)
	require.NotEmpty(t, res.ChartID)

	record := repo.records[res.ChartID]
	require.NotNil(t, record)
	assert.Equal(t, "己丑", record.YearPillar)
	assert.Equal(t, "辛未", record.HourPillar)
	assert.True(t, record.HourKnown)
	assert.Equal(t, "男", record.Gender)
	assert.Equal(t, "甲", record.DayMaster)
	assert.Equal(t, "木", record.DayElement)
	assert.Equal(t, "食神格", record.Pattern)
	assert.Equal(t, string(res.Profile.Pattern.Result.Confidence), record.Confidence)
	assert.False(t, record.Broken)
	assert.Equal(t, "弱", record.Strength)
	assert.Equal(t, []string{"水", "土", "木"}, []string(record.FavorableElements))
	assert.Equal(t, []string{"火", "金"}, []string(record.UnfavorableElements))
	assert.Equal(t, []string{"戌", "亥"}, []string(record.VoidBranches))
	assert.NotEmpty(t, record.Profile)

	vec := index.vectors[res.ChartID]
	require.Len(t, vec, FeatureDim)

	// 同盘重复归档返回既有记录
	again, err := svc.Analyze(ctx, c0001Request(true))
	require.NoError(t, err)
	assert.Equal(t, res.ChartID, again.ChartID)
	assert.Len(t, repo.records, 1)
}

func TestServiceArchiveDisabled(t *testing.T) {
	svc := NewService(NewEngine(), nil, nil, nil, nil, time.Minute)
	_, err := svc.Analyze(context.Background(), c0001Request(true))
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestServiceAnalyzeCivil(t *testing.T) {
	cache := newFakeCache()
	almanac := &fakeAlmanac{result: &CivilResult{
		Year:      mustPillar(t, "己丑"),
		Month:     mustPillar(t, "己巳"),
		Day:       mustPillar(t, "甲子"),
		Hour:      mustPillar(t, "辛未"),
		HourKnown: true,
		Lunar:     "1989年4月11日",
		LuckCycles: []LuckCycle{
			{Sequence: 1, AgeStart: 3, AgeEnd: 12, GanZhi: "庚午", Elements: "金火"},
			{Sequence: 2, AgeStart: 13, AgeEnd: 22, GanZhi: "辛未", Elements: "金土"},
		},
	}}
	svc := NewService(NewEngine(), cache, nil, nil, almanac, time.Minute)
	ctx := context.Background()

	civil := CivilDate{Year: 1989, Month: 5, Day: 15, Hour: 13, Gender: chart.Male}
	res, err := svc.AnalyzeCivil(ctx, civil, false)
	require.NoError(t, err)

	require.Len(t, res.Profile.LuckCycles, 2)
	assert.Equal(t, "庚午", res.Profile.LuckCycles[0].GanZhi)
	require.NotNil(t, res.Profile.Input.Civil)
	assert.Equal(t, 1989, res.Profile.Input.Civil.Year)
	assert.Equal(t, 13, res.Profile.Input.Civil.Hour)
	assert.Equal(t, "1989年4月11日", res.Profile.Input.Civil.Lunar)

	// 缓存的核心画像不含大運与公历回显
	key := cacheKeyPrefix + entity.BuildChartKey("己丑", "己巳", "甲子", "辛未", "男")
	cached := cache.store[key]
	require.NotNil(t, cached)
	assert.Empty(t, cached.LuckCycles)
	assert.Nil(t, cached.Input.Civil)

	// 二次公历分析命中缓存后仍叠加大運
	again, err := svc.AnalyzeCivil(ctx, civil, false)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	require.Len(t, again.Profile.LuckCycles, 2)
}

func TestServiceAlmanacDisabled(t *testing.T) {
	svc := NewService(NewEngine(), nil, nil, nil, nil, time.Minute)
	_, err := svc.AnalyzeCivil(context.Background(), CivilDate{Year: 1989, Month: 5, Day: 15, Hour: 13, Gender: chart.Male}, false)
	assert.ErrorIs(t, err, ErrAlmanacDisabled)
}

func TestServiceSimilar(t *testing.T) {
	repo := newFakeChartRepo()
	index := newFakeIndex()
	svc := NewService(NewEngine(), nil, repo, index, nil, time.Minute)
	ctx := context.Background()

	base, err := svc.Analyze(ctx, c0001Request(true))
	require.NoError(t, err)

	other, err := svc.Analyze(ctx, AnalyzeRequest{
		AnalyzeInput: AnalyzeInput{Year: "甲子", Month: "丙寅", Day: "甲寅", Hour: "乙丑", Gender: chart.Male},
		Persist:      true,
	})
	require.NoError(t, err)
	require.NotEqual(t, base.ChartID, other.ChartID)

	matches, err := svc.Similar(ctx, base.ChartID, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, other.ChartID, matches[0].Chart.ID)
	assert.Greater(t, matches[0].Score, float32(0))
}

func TestServiceSimilarDisabled(t *testing.T) {
	repo := newFakeChartRepo()
	svc := NewService(NewEngine(), nil, repo, nil, nil, time.Minute)
	_, err := svc.Similar(context.Background(), "whatever", 5)
	assert.ErrorIs(t, err, ErrSimilarDisabled)
}

func TestServiceDeleteChart(t *testing.T) {
	cache := newFakeCache()
	repo := newFakeChartRepo()
	index := newFakeIndex()
	svc := NewService(NewEngine(), cache, repo, index, nil, time.Minute)
	ctx := context.Background()

	res, err := svc.Analyze(ctx, c0001Request(true))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteChart(ctx, res.ChartID))
	assert.Empty(t, repo.records)
	assert.Empty(t, cache.store)
	assert.Contains(t, index.removed, res.ChartID)

	_, err = svc.GetChart(ctx, res.ChartID)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeChartNotFound, appErr.Code)
}

func TestServiceGetChartNotFound(t *testing.T) {
	svc := NewService(NewEngine(), nil, newFakeChartRepo(), nil, nil, time.Minute)
	_, err := svc.GetChart(context.Background(), "missing")
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeChartNotFound, appErr.Code)
}
