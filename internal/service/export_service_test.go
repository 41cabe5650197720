package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/pkg/storage"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *meetingWorld) {
	t.Helper()
	w := confirmedWorld()
	w.meetings["m-1"].Status = models.MeetingStatusProposing
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(w.meetingRepo(), w.windowRepo(), w.responseRepo(), store, signer,
		ExportConfig{APIPrefix: "/api/v1/", ResultTTL: time.Hour}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }
	return svc, w
}

func readExport(t *testing.T, svc *ExportService, relPath string) []byte {
	t.Helper()
	f, err := svc.Open(relPath)
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	return body
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ExportJob{ID: "job-1", MeetingID: "m-1", Params: models.ExportJobParams{Format: models.ExportFormatCSV, IncludeResponses: true}}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "lunch_20250301_093000.csv", result.RelativePath)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/download?token="))
	assert.Equal(t, result.Token, extractToken(result.URL))

	claims, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", claims.JobID)
	assert.Equal(t, result.RelativePath, claims.Path)

	records, err := csv.NewReader(strings.NewReader(string(readExport(t, svc, result.RelativePath)))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"Window", "Date", "Responder", "Start", "End", "Minutes"}, records[0])
	assert.Equal(t, []string{"#1", "2025-03-04", "Proposed", "3:00 pm", "5:00 pm", "120"}, records[1])
	assert.Equal(t, []string{"#1", "2025-03-04", "Overlap", "4:00 pm", "4:45 pm", "45"}, records[4])
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ExportJob{ID: "job-2", MeetingID: "m-1", Params: models.ExportJobParams{Format: models.ExportFormatPDF}}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, models.ExportFormatPDF, result.Format)
	assert.True(t, strings.HasPrefix(string(readExport(t, svc, result.RelativePath)), "%PDF"))
}

func TestExportServiceGenerateErrors(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	_, err := svc.Generate(context.Background(), &models.ExportJob{ID: "j", MeetingID: "m-1", Params: models.ExportJobParams{Format: "xlsx"}})
	assert.Error(t, err)
	_, err = svc.Generate(context.Background(), &models.ExportJob{ID: "j", MeetingID: "gone", Params: models.ExportJobParams{Format: models.ExportFormatCSV}})
	assert.Error(t, err)
	_, err = svc.Generate(context.Background(), nil)
	assert.Error(t, err)
}

func TestBuildAvailabilityDatasetMarksMissingOverlap(t *testing.T) {
	meeting := &models.Meeting{Title: "Standup"}
	windows := []models.TimeWindow{{ID: "w", DateLabel: "Mon", StartTime: "9:00 am", EndTime: "10:00 am"}}
	responses := []models.Response{
		{WindowID: "w", ResponderName: "A", StartTime: "9:00 am", EndTime: "9:30 am"},
		{WindowID: "w", ResponderName: "B", StartTime: "9:30 am", EndTime: "10:00 am"},
	}

	data := BuildAvailabilityDataset(meeting, windows, responses, false)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "Availability: Standup", data.Title)
	assert.Equal(t, "No overlap", data.Rows[1]["Responder"])
	assert.Equal(t, "--", data.Rows[1]["Start"])
	assert.True(t, data.Emphasis[1])
	assert.False(t, data.Emphasis[0])
}
