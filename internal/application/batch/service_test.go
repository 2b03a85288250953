package batch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazi-engine-api/internal/application/analysis"
	"bazi-engine-api/internal/domain/entity"
	apperrors "bazi-engine-api/pkg/errors"
)

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
	var out []*entity.AnalysisJob
	for _, j := range f.jobs {
		if j.Status == entity.JobStatusPending {
			out = append(out, j)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeJobRepo) GetFailedJobs(ctx context.Context, maxRetries int, limit int) ([]*entity.AnalysisJob, error) {
	var out []*entity.AnalysisJob
	for _, j := range f.jobs {
		if j.Status == entity.JobStatusFailed && j.RetryCount < maxRetries {
			out = append(out, j)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeQueue struct {
	messages []ItemMessage
	failIdx  map[int]error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{failIdx: map[int]error{}}
}

func (f *fakeQueue) PublishItem(ctx context.Context, msg ItemMessage) error {
	if err, ok := f.failIdx[msg.Index]; ok {
		return err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func newTestAnalyzer() *analysis.Service {
	return analysis.NewService(analysis.NewEngine(), nil, nil, nil, nil, time.Minute)
}

func validSpecs() []entity.BatchChartSpec {
	return []entity.BatchChartSpec{
		{Year: "己丑", Month: "己巳", Day: "甲子", Hour: "辛未", Gender: "男", Tag: "C0001"},
		{Year: "甲子", Month: "丙寅", Day: "甲寅", Hour: "乙丑", Gender: "男", Tag: "C0002"},
	}
}

func TestSubmitPublishesPerChart(t *testing.T) {
	repo := newFakeJobRepo()
	queue := newFakeQueue()
	svc := NewService(newTestAnalyzer(), repo, queue)

	job, err := svc.Submit(context.Background(), validSpecs(), false)
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, entity.JobStatusPending, job.Status)
	assert.Equal(t, 2, job.Total)

	require.Len(t, queue.messages, 2)
	assert.Equal(t, ItemMessage{JobID: job.ID, Index: 0}, queue.messages[0])
	assert.Equal(t, ItemMessage{JobID: job.ID, Index: 1}, queue.messages[1])
}

func TestSubmitValidation(t *testing.T) {
	svc := NewService(newTestAnalyzer(), newFakeJobRepo(), newFakeQueue())

	_, err := svc.Submit(context.Background(), nil, false)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)

	big := make([]entity.BatchChartSpec, MaxBatchCharts+1)
	for i := range big {
		big[i] = entity.BatchChartSpec{Year: "己丑", Month: "己巳", Day: "甲子", Gender: "男"}
	}
	_, err = svc.Submit(context.Background(), big, false)
	appErr = apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
}

func TestSubmitPublishFailureRecordsItem(t *testing.T) {
	repo := newFakeJobRepo()
	queue := newFakeQueue()
	queue.failIdx[1] = fmt.Errorf("stream unavailable")
	svc := NewService(newTestAnalyzer(), repo, queue)

	job, err := svc.Submit(context.Background(), validSpecs(), false)
	require.NoError(t, err)

	require.Len(t, queue.messages, 1)
	stored := repo.jobs[job.ID]
	require.Len(t, stored.Results, 1)
	assert.Equal(t, 1, stored.Results[0].Index)
	assert.Contains(t, stored.Results[0].Error, "消息投递失败")
	assert.Equal(t, 1, stored.Failed)
}

func TestProcessItemsToCompletion(t *testing.T) {
	repo := newFakeJobRepo()
	queue := newFakeQueue()
	svc := NewService(newTestAnalyzer(), repo, queue)
	ctx := context.Background()

	job, err := svc.Submit(ctx, validSpecs(), false)
	require.NoError(t, err)

	require.NoError(t, svc.ProcessItem(ctx, ItemMessage{JobID: job.ID, Index: 0}))
	stored, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusRunning, stored.Status)
	assert.Equal(t, 1, stored.Completed)
	assert.Equal(t, "食神格", stored.Results[0].Pattern)
	assert.Equal(t, "弱", stored.Results[0].Strength)

	require.NoError(t, svc.ProcessItem(ctx, ItemMessage{JobID: job.ID, Index: 1}))
	stored, err = svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, stored.Status)
	assert.Equal(t, 2, stored.Completed)
	assert.Equal(t, 0, stored.Failed)
	require.NotNil(t, stored.FinishedAt)
	assert.Equal(t, 100, stored.Progress())
}

func TestProcessItemAnalysisFailure(t *testing.T) {
	repo := newFakeJobRepo()
	queue := newFakeQueue()
	svc := NewService(newTestAnalyzer(), repo, queue)
	ctx := context.Background()

	specs := []entity.BatchChartSpec{
		{Year: "己丑", Month: "己巳", Day: "甲子", Hour: "辛未", Gender: "男"},
		{Year: "xx", Month: "己巳", Day: "甲子", Gender: "女"},
	}
	job, err := svc.Submit(ctx, specs, false)
	require.NoError(t, err)

	require.NoError(t, svc.ProcessItem(ctx, ItemMessage{JobID: job.ID, Index: 0}))
	require.NoError(t, svc.ProcessItem(ctx, ItemMessage{JobID: job.ID, Index: 1}))

	stored, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusPartial, stored.Status)
	assert.Equal(t, 1, stored.Completed)
	assert.Equal(t, 1, stored.Failed)
	assert.NotEmpty(t, stored.Results[1].Error)
}

func TestProcessItemIdempotent(t *testing.T) {
	repo := newFakeJobRepo()
	svc := NewService(newTestAnalyzer(), repo, newFakeQueue())
	ctx := context.Background()

	job, err := svc.Submit(ctx, validSpecs(), false)
	require.NoError(t, err)

	msg := ItemMessage{JobID: job.ID, Index: 0}
	require.NoError(t, svc.ProcessItem(ctx, msg))
	require.NoError(t, svc.ProcessItem(ctx, msg))

	stored, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Completed)
	require.Len(t, stored.Results, 1)
}

func TestProcessItemUnknownJob(t *testing.T) {
	svc := NewService(newTestAnalyzer(), newFakeJobRepo(), newFakeQueue())
	err := svc.ProcessItem(context.Background(), ItemMessage{JobID: "missing", Index: 0})
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeJobNotFound, appErr.Code)
}

func TestProcessItemIndexOutOfRange(t *testing.T) {
	repo := newFakeJobRepo()
	svc := NewService(newTestAnalyzer(), repo, newFakeQueue())
	ctx := context.Background()

	job, err := svc.Submit(ctx, validSpecs(), false)
	require.NoError(t, err)

	err = svc.ProcessItem(ctx, ItemMessage{JobID: job.ID, Index: 9})
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
}

func TestRequeuePending(t *testing.T) {
	repo := newFakeJobRepo()
	queue := newFakeQueue()
	svc := NewService(newTestAnalyzer(), repo, queue)
	ctx := context.Background()

	job := entity.NewAnalysisJob(validSpecs(), false)
	require.NoError(t, repo.Create(ctx, job))

	require.NoError(t, svc.RequeuePending(ctx, 10))
	require.Len(t, queue.messages, 2)
	assert.Equal(t, job.ID, queue.messages[0].JobID)
}

func TestRetryFailed(t *testing.T) {
	repo := newFakeJobRepo()
	queue := newFakeQueue()
	svc := NewService(newTestAnalyzer(), repo, queue)
	ctx := context.Background()

	job := entity.NewAnalysisJob(validSpecs(), false)
	require.NoError(t, repo.Create(ctx, job))
	job.Start()
	job.Fail("stream consumer crashed")

	require.NoError(t, svc.RetryFailed(ctx, 3, 10))

	stored := repo.jobs[job.ID]
	assert.Equal(t, entity.JobStatusPending, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	require.Len(t, queue.messages, 2)
}

func TestBatchDisabled(t *testing.T) {
	svc := NewService(newTestAnalyzer(), nil, nil)
	_, err := svc.Submit(context.Background(), validSpecs(), false)
	assert.ErrorIs(t, err, ErrQueueDisabled)

	err = svc.RequeuePending(context.Background(), 10)
	assert.ErrorIs(t, err, ErrQueueDisabled)
}
