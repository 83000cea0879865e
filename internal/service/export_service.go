package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/reuniteapp/reunite-api/internal/models"
	"github.com/reuniteapp/reunite-api/pkg/export"
	"github.com/reuniteapp/reunite-api/pkg/storage"
)

type exportItemSource interface {
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	PageSize  int
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	RowCount     int
	ExpiresAt    time.Time
}

// ExportService builds item datasets and persists rendered files.
type ExportService struct {
	items   exportItemSource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	poster  posterRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type posterRenderer interface {
	Render(poster export.Poster) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(items exportItemSource, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		items:   items,
		storage: files,
		csv:     csv,
		pdf:     pdf,
		poster:  export.NewPosterExporter(),
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds the dataset behind a job definition and stores the
// rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job.Params)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/exports/download/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		RowCount:     len(dataset.Rows),
		ExpiresAt:    expiresAt,
	}, nil
}

// RenderPoster produces a printable flyer PDF for a single item.
func (s *ExportService) RenderPoster(item *models.Item, contact string) ([]byte, error) {
	if item == nil {
		return nil, fmt.Errorf("item nil")
	}
	heading := "LOST"
	if item.Type == models.ItemTypeFound {
		heading = "FOUND"
	}
	return s.poster.Render(export.Poster{
		Heading:     heading,
		Title:       item.Title,
		Category:    item.Category,
		Location:    item.Location,
		Description: item.Description,
		Contact:     contact,
		Reference:   item.ID,
		ReportedAt:  item.CreatedAt.UTC().Format("2 Jan 2006"),
	})
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scope := "items"
	if job.Params.Type != nil {
		scope = strings.ToLower(string(*job.Params.Type))
	}
	return fmt.Sprintf("%s_%s.%s", scope, timestamp, job.Params.Format)
}

func (s *ExportService) buildDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	filter := models.ItemFilter{
		Type:      params.Type,
		Status:    params.Status,
		Page:      1,
		PageSize:  s.cfg.PageSize,
		SortBy:    "created_at",
		SortOrder: "asc",
	}

	rows := make([]map[string]string, 0)
	for {
		items, total, err := s.items.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		for i := range items {
			rows = append(rows, itemExportRow(&items[i]))
		}
		if len(rows) >= total || len(items) == 0 {
			break
		}
		filter.Page++
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Type", "Title", "Category", "Location", "Status", "Keywords", "Expires At", "Created At"},
		Rows:    rows,
	}

	title := "Item Report"
	switch {
	case params.Type != nil && *params.Type == models.ItemTypeLost:
		title = "Lost Item Report"
	case params.Type != nil && *params.Type == models.ItemTypeFound:
		title = "Found Item Report"
	}
	return dataset, title, nil
}

func itemExportRow(item *models.Item) map[string]string {
	return map[string]string{
		"ID":         item.ID,
		"Type":       string(item.Type),
		"Title":      item.Title,
		"Category":   item.Category,
		"Location":   item.Location,
		"Status":     string(item.Status),
		"Keywords":   strings.Join(item.Keywords, ", "),
		"Expires At": item.ExpiresAt.UTC().Format(time.RFC3339),
		"Created At": item.CreatedAt.UTC().Format(time.RFC3339),
	}
}
