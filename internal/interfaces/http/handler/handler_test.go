package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"bazi-engine-api/internal/application/analysis"
	"bazi-engine-api/internal/application/batch"
	"bazi-engine-api/internal/domain/entity"
	"bazi-engine-api/internal/domain/repository"
	"bazi-engine-api/internal/infrastructure/calendar"
)

func init() {
	gin.SetMode(gin.TestMode)
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

type fakeJobRepo struct {
	jobs   map[string]*entity.AnalysisJob
	nextID int
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]*entity.AnalysisJob{}}
}

func (f *fakeJobRepo) Create(ctx context.Context, job *entity.AnalysisJob) error {
	f.nextID++
	if job.ID == "" {
		job.ID = fmt.Sprintf("job-%d", f.nextID)
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) GetByID(ctx context.Context, id string) (*entity.AnalysisJob, error) {
	return f.jobs[id], nil
}

func (f *fakeJobRepo) Update(ctx context.Context, job *entity.AnalysisJob) error {
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error {
	if job, ok := f.jobs[id]; ok {
		job.Status = status
	}
	return nil
}

func (f *fakeJobRepo) AppendResult(ctx context.Context, jobID string, item entity.JobItemResult) (*entity.AnalysisJob, bool, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, false, fmt.Errorf("job %s not found", jobID)
	}
	for _, r := range job.Results {
		if r.Index == item.Index {
			return job, false, nil
		}
	}
	if job.Status == entity.JobStatusPending {
		job.Start()
	}
	job.AddResult(item)
	if job.Completed+job.Failed == job.Total {
		job.Finish()
	}
	return job, true, nil
}

func (f *fakeJobRepo) GetPendingJobs(ctx context.Context, limit int) ([]*entity.AnalysisJob, error) {
	return nil, nil
}

func (f *fakeJobRepo) GetFailedJobs(ctx context.Context, maxRetries int, limit int) ([]*entity.AnalysisJob, error) {
	return nil, nil
}

type fakeQueue struct {
	messages []batch.ItemMessage
}

func (f *fakeQueue) PublishItem(ctx context.Context, item batch.ItemMessage) error {
	f.messages = append(f.messages, item)
	return nil
}

type testEnv struct {
	router *gin.Engine
	charts *fakeChartRepo
	jobs   *fakeJobRepo
	queue  *fakeQueue
}

func newTestEnv() *testEnv {
	charts := newFakeChartRepo()
	jobs := newFakeJobRepo()
	queue := &fakeQueue{}

	svc := analysis.NewService(analysis.NewEngine(), nil, charts, nil, calendar.NewAlmanac(), 0)
	batchSvc := batch.NewService(svc, jobs, queue)

	r := gin.New()
	v1 := r.Group("/v1")
	a := NewAnalysisHandler(svc)
	ch := NewChartHandler(svc, charts, 0)
	j := NewJobHandler(batchSvc)
	v1.POST("/analyses", a.Analyze)
	v1.POST("/analyses/civil", a.AnalyzeCivil)
	v1.GET("/charts", ch.ListCharts)
	v1.GET("/charts/stats/patterns", ch.PatternStats)
	v1.GET("/charts/:id", ch.GetChart)
	v1.DELETE("/charts/:id", ch.DeleteChart)
	v1.GET("/charts/:id/similar", ch.Similar)
	v1.POST("/jobs/batch", j.SubmitBatch)
	v1.GET("/jobs/:id", j.GetJob)

	return &testEnv{router: r, charts: charts, jobs: jobs, queue: queue}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestAnalyzeEndpoint(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/v1/analyses",
		`{"year":"己丑","month":"己巳","day":"甲子","hour":"辛未","gender":"男"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.Bytes()
	assert.Equal(t, int64(200), gjson.GetBytes(body, "code").Int())
	assert.Equal(t, "甲", gjson.GetBytes(body, "data.profile.ten_gods.day_master").String())
	assert.NotEmpty(t, gjson.GetBytes(body, "data.profile.pattern.result.主格").String())
	assert.False(t, gjson.GetBytes(body, "data.cached").Bool())
	assert.Empty(t, gjson.GetBytes(body, "data.chart_id").String())
	assert.Empty(t, env.charts.records)
}

func TestAnalyzeEndpointPersists(t *testing.T) {
	env := newTestEnv()
	reqBody := `{"year":"己丑","month":"己巳","day":"甲子","hour":"辛未","gender":"男","persist":true}`

	w := env.do(t, http.MethodPost, "/v1/analyses", reqBody)
	require.Equal(t, http.StatusOK, w.Code)
	chartID := gjson.GetBytes(w.Body.Bytes(), "data.chart_id").String()
	require.NotEmpty(t, chartID)
	require.Len(t, env.charts.records, 1)

	// 同一命盘重复归档返回既有记录
	w = env.do(t, http.MethodPost, "/v1/analyses", reqBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, chartID, gjson.GetBytes(w.Body.Bytes(), "data.chart_id").String())
	assert.Len(t, env.charts.records, 1)
}

func TestAnalyzeEndpointRejectsBadInput(t *testing.T) {
	env := newTestEnv()

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"year":`},
		{"missing pillars", `{"gender":"男"}`},
		{"unknown gender", `{"year":"己丑","month":"己巳","day":"甲子","gender":"x"}`},
		{"polarity mismatch", `{"year":"己丑","month":"甲丑","day":"甲子","gender":"男"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/v1/analyses", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, int64(400), gjson.GetBytes(w.Body.Bytes(), "code").Int())
		})
	}
}

func TestAnalyzeCivilEndpoint(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/v1/analyses/civil",
		`{"year":1988,"month":3,"day":15,"hour":10,"gender":"男"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.Bytes()
	assert.True(t, gjson.GetBytes(body, "data.profile.luck_cycles").Exists())
	assert.Equal(t, int64(1988), gjson.GetBytes(body, "data.profile.input.civil.year").Int())
}

func TestAnalyzeCivilEndpointDateOutOfRange(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/v1/analyses/civil",
		`{"year":1899,"month":1,"day":20,"gender":"女"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeCivilEndpointDisabled(t *testing.T) {
	svc := analysis.NewService(analysis.NewEngine(), nil, nil, nil, nil, 0)
	r := gin.New()
	r.POST("/v1/analyses/civil", NewAnalysisHandler(svc).AnalyzeCivil)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyses/civil",
		strings.NewReader(`{"year":1988,"month":3,"day":15,"gender":"男"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestChartEndpoints(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/v1/analyses",
		`{"year":"己丑","month":"己巳","day":"甲子","hour":"辛未","gender":"男","persist":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	chartID := gjson.GetBytes(w.Body.Bytes(), "data.chart_id").String()
	require.NotEmpty(t, chartID)

	t.Run("detail", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/v1/charts/"+chartID, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.Bytes()
		assert.Equal(t, chartID, gjson.GetBytes(body, "data.id").String())
		assert.Equal(t, "甲", gjson.GetBytes(body, "data.day_master").String())
		assert.Equal(t, "1", gjson.GetBytes(body, "data.profile.schema_version").String())
	})

	t.Run("not found", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/v1/charts/no-such-chart", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/v1/charts?pattern=正財格&sort_by=created_at&order=asc", "")
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.Bytes()
		assert.Equal(t, int64(1), gjson.GetBytes(body, "data.#").Int())
		assert.Equal(t, int64(1), gjson.GetBytes(body, "meta.total").Int())
	})

	t.Run("pattern stats", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/v1/charts/stats/patterns", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(1), gjson.GetBytes(w.Body.Bytes(), "data.total").Int())
	})

	t.Run("similar disabled", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/v1/charts/"+chartID+"/similar", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/v1/charts/"+chartID, "")
		require.Equal(t, http.StatusNoContent, w.Code)

		w = env.do(t, http.MethodGet, "/v1/charts/"+chartID, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestJobEndpoints(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/v1/jobs/batch",
		`{"charts":[
			{"year":"己丑","month":"己巳","day":"甲子","hour":"辛未","gender":"男"},
			{"year":"庚午","month":"辛巳","day":"庚辰","gender":"女","tag":"second"}
		]}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	body := w.Body.Bytes()
	jobID := gjson.GetBytes(body, "data.id").String()
	require.NotEmpty(t, jobID)
	assert.Equal(t, "pending", gjson.GetBytes(body, "data.status").String())
	assert.Equal(t, int64(2), gjson.GetBytes(body, "data.total").Int())
	assert.Len(t, env.queue.messages, 2)

	t.Run("get job", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/v1/jobs/"+jobID, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(2), gjson.GetBytes(w.Body.Bytes(), "data.total").Int())
	})

	t.Run("job not found", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/v1/jobs/no-such-job", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("empty charts rejected", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/v1/jobs/batch", `{"charts":[]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestJobEndpointsQueueDisabled(t *testing.T) {
	svc := analysis.NewService(analysis.NewEngine(), nil, nil, nil, nil, 0)
	r := gin.New()
	r.POST("/v1/jobs/batch", NewJobHandler(batch.NewService(svc, nil, nil)).SubmitBatch)

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs/batch",
		strings.NewReader(`{"charts":[{"year":"己丑","month":"己巳","day":"甲子","gender":"男"}]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	h := NewHealthHandler("v0.1.0", nil, nil, nil)
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/live", h.Live)

	t.Run("health reports version", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "v0.1.0", gjson.GetBytes(w.Body.Bytes(), "version").String())
	})

	t.Run("live", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ready without dependencies", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		body := w.Body.Bytes()
		assert.Equal(t, "not_ready", gjson.GetBytes(body, "status").String())
		assert.Equal(t, "missing", gjson.GetBytes(body, "checks.postgres.status").String())
		assert.Equal(t, "disabled", gjson.GetBytes(body, "checks.milvus.status").String())
	})
}
