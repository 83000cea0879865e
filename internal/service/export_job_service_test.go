package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reuniteapp/reunite-api/internal/dto"
	"github.com/reuniteapp/reunite-api/internal/models"
	"github.com/reuniteapp/reunite-api/internal/repository"
	"github.com/reuniteapp/reunite-api/pkg/jobs"
)

type exportJobRepoStub struct {
	jobs map[string]*models.ExportJob
}

func newExportJobRepoStub() *exportJobRepoStub {
	return &exportJobRepoStub{jobs: map[string]*models.ExportJob{}}
}

func (r *exportJobRepoStub) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *exportJobRepoStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return job, nil
}

func (r *exportJobRepoStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return errors.New("not found")
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *exportJobRepoStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var queued []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (r *exportJobRepoStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return nil, nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newExportJobServiceForTest(t *testing.T) (*ExportJobService, *exportJobRepoStub, *queueStub, *ExportService) {
	t.Helper()
	repo := newExportJobRepoStub()
	queue := &queueStub{}
	exportSvc, _ := newExportServiceForTest(t)
	service := NewExportJobService(repo, queue, exportSvc, zap.NewNop(), ExportJobServiceConfig{
		ResultTTL:       time.Hour,
		CleanupInterval: time.Hour,
		MaxRetries:      3,
	})
	return service, repo, queue, exportSvc
}

func TestExportJobServiceCreateJob(t *testing.T) {
	svc, repo, queue, _ := newExportJobServiceForTest(t)
	resp, err := svc.CreateJob(context.Background(), dto.ExportRequest{
		Format: models.ExportFormatCSV,
	}, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeExportItems, queue.jobs[0].Type)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	assert.Contains(t, repo.jobs, resp.ID)
}

func TestExportJobServiceCreateJobRejectsBadFormat(t *testing.T) {
	svc, _, queue, _ := newExportJobServiceForTest(t)
	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{
		Format: models.ExportFormat("xlsx"),
	}, "admin")
	require.Error(t, err)
	require.Empty(t, queue.jobs)
}

func TestExportJobServiceCreateJobRejectsBadType(t *testing.T) {
	svc, _, _, _ := newExportJobServiceForTest(t)
	bad := models.ItemType("STOLEN")
	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{
		Type:   &bad,
		Format: models.ExportFormatCSV,
	}, "admin")
	require.Error(t, err)
}

func TestExportJobServiceGetStatus(t *testing.T) {
	svc, repo, _, _ := newExportJobServiceForTest(t)
	job := &models.ExportJob{
		ID:        "job-1",
		Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
		Status:    models.ExportStatusFinished,
		Progress:  100,
		CreatedBy: "admin",
	}
	repo.jobs[job.ID] = job
	resp, err := svc.GetStatus(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.Status, resp.Status)
	assert.Equal(t, job.Progress, resp.Progress)
}

func TestExportJobServiceResolveDownload(t *testing.T) {
	svc, repo, _, exportSvc := newExportJobServiceForTest(t)
	job := &models.ExportJob{
		ID:        "job-download",
		Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
		Status:    models.ExportStatusFinished,
		Progress:  100,
		CreatedBy: "admin",
	}
	repo.jobs[job.ID] = job
	result, err := exportSvc.Generate(context.Background(), job)
	require.NoError(t, err)
	job.ResultURL = &result.URL
	now := time.Now()
	job.FinishedAt = &now

	download, err := svc.ResolveDownload(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(result.RelativePath), download.Filename)
	download.File.Close()
}

type exportStub struct {
	result *ExportResult
	err    error
}

func (e exportStub) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func TestExportWorkerHandleSuccess(t *testing.T) {
	repo := &exportJobRepoStub{
		jobs: map[string]*models.ExportJob{
			"job-1": {
				ID:        "job-1",
				Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
				Status:    models.ExportStatusQueued,
				CreatedBy: "admin",
			},
		},
	}
	exporter := exportStub{result: &ExportResult{URL: "/api/v1/exports/download/token"}}
	worker := NewExportWorker(repo, exporter, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1"})
	require.NoError(t, err)
	require.Equal(t, models.ExportStatusFinished, repo.jobs["job-1"].Status)
	require.Equal(t, 100, repo.jobs["job-1"].Progress)
}

func TestExportWorkerHandleFailureRetries(t *testing.T) {
	repo := &exportJobRepoStub{
		jobs: map[string]*models.ExportJob{
			"job-1": {
				ID:        "job-1",
				Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
				Status:    models.ExportStatusQueued,
				CreatedBy: "admin",
			},
		},
	}
	exporter := exportStub{err: errors.New("boom")}
	worker := NewExportWorker(repo, exporter, 2, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2})
	require.Error(t, err)
	require.Equal(t, models.ExportStatusFailed, repo.jobs["job-1"].Status)
}

func TestExportWorkerHandleFailureRequeues(t *testing.T) {
	repo := &exportJobRepoStub{
		jobs: map[string]*models.ExportJob{
			"job-1": {
				ID:        "job-1",
				Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
				Status:    models.ExportStatusQueued,
				CreatedBy: "admin",
			},
		},
	}
	exporter := exportStub{err: errors.New("boom")}
	worker := NewExportWorker(repo, exporter, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	require.Equal(t, models.ExportStatusQueued, repo.jobs["job-1"].Status)
	require.Equal(t, 0, repo.jobs["job-1"].Progress)
}
