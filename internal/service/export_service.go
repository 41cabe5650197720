package service

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/pkg/clock"
	"github.com/noah-isme/huddle-api/pkg/export"
	"github.com/noah-isme/huddle-api/pkg/storage"
)

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
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService builds availability datasets and persists rendered files.
type ExportService struct {
	meetings  meetingStore
	windows   windowStore
	responses responseStore
	storage   fileStorage
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(meetings meetingStore, windows windowStore, responses responseStore, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		meetings:  meetings,
		windows:   windows,
		responses: responses,
		storage:   store,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Generate renders the job's meeting and stores the file behind a signed URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, err := export.ForFormat(string(job.Params.Format))
	if err != nil {
		return nil, err
	}
	meeting, err := s.meetings.FindByID(ctx, job.MeetingID)
	if err != nil {
		return nil, fmt.Errorf("load meeting %s: %w", job.MeetingID, err)
	}
	windows, err := s.windows.ListByMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, fmt.Errorf("load windows: %w", err)
	}
	responses, err := s.responses.ListByMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}

	payload, err := renderer.Render(BuildAvailabilityDataset(meeting, windows, responses, job.Params.IncludeResponses))
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("%s_%s.%s", sanitizeFilename(meeting.ShareSlug), s.now().UTC().Format("20060102_150405"), renderer.Extension())
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Sign(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Info("export rendered", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(payload)))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          prefix + "/exports/download?token=" + url.QueryEscape(token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.Claims, error) {
	return s.signer.Verify(token, allowExpired)
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

// Availability export columns.
const (
	colWindow    = "Window"
	colDate      = "Date"
	colResponder = "Responder"
	colStart     = "Start"
	colEnd       = "End"
	colMinutes   = "Minutes"
)

// BuildAvailabilityDataset lays out one block per window: the proposed
// range, optionally every response, then the overlap row in bold.
func BuildAvailabilityDataset(meeting *models.Meeting, windows []models.TimeWindow, responses []models.Response, includeResponses bool) export.Dataset {
	byWindow := make(map[string][]models.Response, len(windows))
	for _, r := range responses {
		byWindow[r.WindowID] = append(byWindow[r.WindowID], r)
	}

	data := export.Dataset{
		Title:    "Availability: " + meeting.Title,
		Headers:  []string{colWindow, colDate, colResponder, colStart, colEnd, colMinutes},
		Emphasis: map[int]bool{},
	}
	for i, w := range windows {
		label := fmt.Sprintf("#%d", i+1)
		data.Rows = append(data.Rows, availabilityRow(label, w.DateLabel, "Proposed", w.StartTime, w.EndTime))

		if includeResponses {
			for _, resp := range byWindow[w.ID] {
				data.Rows = append(data.Rows, availabilityRow(label, w.DateLabel, resp.ResponderName, resp.StartTime, resp.EndTime))
			}
		}

		overlap := map[string]string{colWindow: label, colDate: w.DateLabel, colResponder: "Overlap", colStart: clock.UnsetDisplay, colEnd: clock.UnsetDisplay, colMinutes: "0"}
		if result, ok := windowOverlap(w, byWindow[w.ID]); ok {
			overlap[colStart] = result.OverlapStart
			overlap[colEnd] = result.OverlapEnd
			overlap[colMinutes] = fmt.Sprintf("%d", result.DurationMinutes)
		} else {
			overlap[colResponder] = "No overlap"
		}
		data.Emphasis[len(data.Rows)] = true
		data.Rows = append(data.Rows, overlap)
	}
	return data
}

func availabilityRow(window, date, who, start, end string) map[string]string {
	minutes := "0"
	if r, err := clock.NewRange(start, end); err == nil {
		minutes = fmt.Sprintf("%d", r.Duration())
	}
	return map[string]string{colWindow: window, colDate: date, colResponder: who, colStart: start, colEnd: end, colMinutes: minutes}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
