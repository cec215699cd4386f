package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"time"

	"leadrank/internal/common"
	"leadrank/internal/models"
	"leadrank/internal/repositories"

	"github.com/google/uuid"
)

const presignedURLExpiry = 24 * time.Hour

// ExportResult describes a completed CSV export. DownloadURL is empty
// when archival is disabled or the upload failed.
type ExportResult struct {
	Filename    string `json:"filename"`
	RowCount    int    `json:"row_count"`
	SizeBytes   int    `json:"size_bytes"`
	DownloadURL string `json:"download_url,omitempty"`
	Content     []byte `json:"-"`
}

type ExportService interface {
	// ExportCSV renders every live lead of the workspace as CSV and
	// archives a copy in object storage.
	ExportCSV(ctx context.Context, tenantID uuid.UUID) (*ExportResult, error)
}

type exportService struct {
	leadRepo   repositories.LeadRepository
	storageSvc ObjectStorageService
	bucket     string
}

func NewExportService(leadRepo repositories.LeadRepository, storageSvc ObjectStorageService, bucket string) ExportService {
	return &exportService{leadRepo: leadRepo, storageSvc: storageSvc, bucket: bucket}
}

var exportHeader = []string{
	"id", "name", "email", "phone", "origin",
	"time_on_site", "pages_visited", "clicked_price",
	"probability", "score", "outcome", "used_model", "created_at",
}

func (s *exportService) ExportCSV(ctx context.Context, tenantID uuid.UUID) (*ExportResult, error) {
	leads, err := s.leadRepo.ListForExport(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leads for export: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, lead := range leads {
		if err := w.Write(exportRow(lead)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	result := &ExportResult{
		Filename:  fmt.Sprintf("leads_%s_%s.csv", tenantID, time.Now().UTC().Format("20060102T150405Z")),
		RowCount:  len(leads),
		SizeBytes: buf.Len(),
		Content:   buf.Bytes(),
	}

	// Archival is best effort: the caller still gets the CSV body even
	// when object storage is down.
	if s.storageSvc != nil {
		objectName := fmt.Sprintf("%s/%s", tenantID, result.Filename)
		if err := s.storageSvc.Upload(ctx, s.bucket, objectName, "text/csv", bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
			log.Printf("WARN: export archival failed for tenant %s: %v", tenantID, err)
			return result, nil
		}
		url, err := s.storageSvc.GetPresignedURL(ctx, s.bucket, objectName, presignedURLExpiry)
		if err != nil {
			log.Printf("WARN: presigning export URL failed for tenant %s: %v", tenantID, err)
			return result, nil
		}
		result.DownloadURL = url
	}
	return result, nil
}

func exportRow(lead *models.Lead) []string {
	probability := ""
	if lead.Probability != nil {
		probability = strconv.FormatFloat(*lead.Probability, 'f', 6, 64)
	}
	score := ""
	if lead.Score != nil {
		score = strconv.Itoa(*lead.Score)
	}
	outcome := ""
	if lead.Outcome != nil {
		outcome = strconv.Itoa(int(*lead.Outcome))
	}
	return []string{
		lead.ID.String(),
		common.SafeString(lead.Name),
		common.SafeString(lead.Email),
		common.SafeString(lead.Phone),
		common.SafeString(lead.Origin),
		strconv.Itoa(lead.TimeOnSite),
		strconv.Itoa(lead.PagesVisited),
		strconv.FormatBool(lead.ClickedPrice),
		probability,
		score,
		outcome,
		strconv.FormatBool(lead.UsedModel),
		lead.CreatedAt.UTC().Format(time.RFC3339),
	}
}
