package services

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"leadrank/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExportCSV_WithoutStorage(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	svc := NewExportService(leadRepo, nil, "")

	tenantID := uuid.New()
	name := "Maria, Silva" // embedded comma must survive quoting
	probability := 0.73
	score := 73
	outcome := models.OutcomeConverted
	leads := []*models.Lead{
		{
			ID:           uuid.New(),
			TenantID:     tenantID,
			Name:         &name,
			TimeOnSite:   280,
			PagesVisited: 7,
			ClickedPrice: true,
			Probability:  &probability,
			Score:        &score,
			Outcome:      &outcome,
			UsedModel:    true,
		},
		{
			ID:       uuid.New(),
			TenantID: tenantID,
		},
	}
	leadRepo.On("ListForExport", mock.Anything, tenantID).Return(leads, nil)

	result, err := svc.ExportCSV(context.Background(), tenantID)
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowCount)
	assert.Empty(t, result.DownloadURL)
	assert.Contains(t, result.Filename, "leads_")

	records, err := csv.NewReader(strings.NewReader(string(result.Content))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 rows

	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, "Maria, Silva", records[1][1])
	assert.Equal(t, "0.730000", records[1][8])
	assert.Equal(t, "73", records[1][9])
	assert.Equal(t, "1", records[1][10])

	// Pending lead: probability, score and outcome columns are empty.
	assert.Equal(t, "", records[2][8])
	assert.Equal(t, "", records[2][10])
}

func TestExportCSV_EmptyWorkspace(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	svc := NewExportService(leadRepo, nil, "")

	tenantID := uuid.New()
	leadRepo.On("ListForExport", mock.Anything, tenantID).Return([]*models.Lead{}, nil)

	result, err := svc.ExportCSV(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Zero(t, result.RowCount)

	records, err := csv.NewReader(strings.NewReader(string(result.Content))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}
