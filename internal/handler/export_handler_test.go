package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reuniteapp/reunite-api/internal/dto"
	"github.com/reuniteapp/reunite-api/internal/middleware"
	"github.com/reuniteapp/reunite-api/internal/models"
	"github.com/reuniteapp/reunite-api/internal/service"
	appErrors "github.com/reuniteapp/reunite-api/pkg/errors"
)

type exportJobServiceMock struct {
	createResp  *dto.ExportJobResponse
	createErr   error
	statusResp  *dto.ExportStatusResponse
	statusErr   error
	download    *service.ExportDownload
	downloadErr error

	lastReq   dto.ExportRequest
	lastActor string
	lastToken string
}

func (m *exportJobServiceMock) CreateJob(ctx context.Context, req dto.ExportRequest, actorID string) (*dto.ExportJobResponse, error) {
	m.lastReq = req
	m.lastActor = actorID
	return m.createResp, m.createErr
}

func (m *exportJobServiceMock) GetStatus(ctx context.Context, id string) (*dto.ExportStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *exportJobServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error) {
	m.lastToken = token
	return m.download, m.downloadErr
}

func TestExportHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exportJobServiceMock{
		createResp: &dto.ExportJobResponse{ID: "job-1", Status: models.ExportStatusQueued},
	}
	handler := NewExportHandler(mockSvc, nil)

	payload, _ := json.Marshal(dto.ExportRequest{Format: models.ExportFormatCSV})
	c, w := newGinContext(http.MethodPost, "/exports", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Create(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "admin-1", mockSvc.lastActor)
	assert.Equal(t, models.ExportFormatCSV, mockSvc.lastReq.Format)
	assert.Contains(t, w.Body.String(), "job-1")
}

func TestExportHandlerCreateInvalidFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exportJobServiceMock{
		createErr: appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"),
	}
	handler := NewExportHandler(mockSvc, nil)

	payload, _ := json.Marshal(dto.ExportRequest{Format: models.ExportFormat("xlsx")})
	c, w := newGinContext(http.MethodPost, "/exports", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	url := "/api/v1/exports/download/abc.def"
	mockSvc := &exportJobServiceMock{
		statusResp: &dto.ExportStatusResponse{ID: "job-1", Status: models.ExportStatusFinished, Progress: 100, ResultURL: &url},
	}
	handler := NewExportHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodGet, "/exports/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}

	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "resultUrl")
}

func TestExportHandlerStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exportJobServiceMock{statusErr: appErrors.ErrNotFound}
	handler := NewExportHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodGet, "/exports/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Status(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "items_20251103.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,type,title\nitem-1,LOST,Blue wallet\n"), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)

	mockSvc := &exportJobServiceMock{
		download: &service.ExportDownload{
			File:      file,
			Filename:  "items_20251103.csv",
			Format:    models.ExportFormatCSV,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	handler := NewExportHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodGet, "/exports/download/token-1", nil)
	c.Params = gin.Params{{Key: "token", Value: "token-1"}}

	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "token-1", mockSvc.lastToken)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "items_20251103.csv")
	assert.Contains(t, w.Body.String(), "Blue wallet")
}

func TestExportHandlerDownloadRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exportJobServiceMock{downloadErr: appErrors.ErrForbidden}
	handler := NewExportHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodGet, "/exports/download/bad-token", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad-token"}}

	handler.Download(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}
