package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/huddle-api/internal/dto"
	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/internal/repository"
	"github.com/noah-isme/huddle-api/pkg/clock"
	appErrors "github.com/noah-isme/huddle-api/pkg/errors"
)

type meetingStore interface {
	Create(ctx context.Context, meeting *models.Meeting, windows []models.TimeWindow, invitees []models.Invitee) error
	FindByID(ctx context.Context, id string) (*models.Meeting, error)
	FindBySlug(ctx context.Context, slug string) (*models.Meeting, error)
	List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, int, error)
	UpdateStatus(ctx context.Context, id string, status models.MeetingStatus) error
	SetLocation(ctx context.Context, id, locationID string, status models.MeetingStatus) error
	Confirm(ctx context.Context, id string, params repository.ConfirmParams) error
}

type windowStore interface {
	ListByMeeting(ctx context.Context, meetingID string) ([]models.TimeWindow, error)
	FindByID(ctx context.Context, meetingID, id string) (*models.TimeWindow, error)
	Create(ctx context.Context, window *models.TimeWindow) error
	Delete(ctx context.Context, meetingID, id string) error
}

type inviteeStore interface {
	ListByMeeting(ctx context.Context, meetingID string) ([]models.Invitee, error)
	FindByName(ctx context.Context, meetingID, name string) (*models.Invitee, error)
}

type responseStore interface {
	Upsert(ctx context.Context, resp *models.Response) error
	ListByMeeting(ctx context.Context, meetingID string) ([]models.Response, error)
	ListByWindow(ctx context.Context, windowID string) ([]models.Response, error)
	Delete(ctx context.Context, windowID, responder string) error
}

type locationStore interface {
	Create(ctx context.Context, s *models.LocationSuggestion) error
	FindByID(ctx context.Context, meetingID, id string) (*models.LocationSuggestion, error)
	ListByMeeting(ctx context.Context, meetingID string) ([]models.LocationSuggestion, error)
	AddVote(ctx context.Context, suggestionID, voter string) (bool, error)
}

// Actor identifies the authenticated organizer behind a request.
type Actor struct {
	ID   string
	Name string
	Role models.UserRole
}

func (a Actor) owns(m *models.Meeting) bool {
	return a.Role == models.RoleAdmin || (a.ID != "" && m.OrganizerID == a.ID)
}

// MeetingServiceConfig carries defaults applied to new meetings.
type MeetingServiceConfig struct {
	DefaultTimezone string
	DefaultDuration int
	// DayStart and DayEnd limit where proposed windows may sit. Unset means
	// the whole day.
	DayStart clock.Time
	DayEnd   clock.Time
}

// MeetingService manages the organizer side of a meeting.
type MeetingService struct {
	meetings  meetingStore
	windows   windowStore
	invitees  inviteeStore
	responses responseStore
	locations locationStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       MeetingServiceConfig
	newSlug   func() (string, error)
}

// NewMeetingService constructs the service.
func NewMeetingService(meetings meetingStore, windows windowStore, invitees inviteeStore, responses responseStore, locations locationStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg MeetingServiceConfig) *MeetingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "UTC"
	}
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = 60
	}
	return &MeetingService{
		meetings:  meetings,
		windows:   windows,
		invitees:  invitees,
		responses: responses,
		locations: locations,
		cache:     cache,
		validator: ensureValidator(validate),
		logger:    logger,
		cfg:       cfg,
		newSlug:   generateSlug,
	}
}

// Create validates every window with the clock engine and persists the
// meeting with its windows and invitees.
func (s *MeetingService) Create(ctx context.Context, req dto.CreateMeetingRequest, actor Actor) (*models.MeetingDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid meeting payload")
	}

	windows := make([]models.TimeWindow, 0, len(req.Windows))
	for i, input := range req.Windows {
		window, err := s.buildWindow(input, fmt.Sprintf("window %d", i+1))
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}

	invitees, err := buildInvitees(req.Invitees)
	if err != nil {
		return nil, err
	}

	meeting := &models.Meeting{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		OrganizerID:     actor.ID,
		OrganizerName:   actor.Name,
		Status:          models.MeetingStatusProposing,
		Timezone:        req.Timezone,
		DurationMinutes: req.DurationMinutes,
	}
	if meeting.Timezone == "" {
		meeting.Timezone = s.cfg.DefaultTimezone
	}
	if meeting.DurationMinutes == 0 {
		meeting.DurationMinutes = s.cfg.DefaultDuration
	}

	for attempt := 0; ; attempt++ {
		slug, err := s.newSlug()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate share link")
		}
		meeting.ShareSlug = slug
		err = s.meetings.Create(ctx, meeting, windows, invitees)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicate) && attempt < 2 {
			continue
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create meeting")
	}

	s.logger.Info("meeting created",
		zap.String("meeting_id", meeting.ID),
		zap.String("organizer_id", actor.ID),
		zap.Int("windows", len(windows)),
	)

	return &models.MeetingDetail{
		Meeting:   *meeting,
		Windows:   windows,
		Invitees:  invitees,
		Responses: []models.Response{},
		Locations: []models.LocationSuggestion{},
		Overlaps:  ComputeOverlaps(windows, nil),
	}, nil
}

// Get returns the full detail of a meeting owned by actor.
func (s *MeetingService) Get(ctx context.Context, id string, actor Actor) (*models.MeetingDetail, error) {
	meeting, err := s.owned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, meeting)
}

// GetBySlug returns the public detail behind a share link.
func (s *MeetingService) GetBySlug(ctx context.Context, slug string) (*models.MeetingDetail, error) {
	meeting, err := findMeeting(ctx, s.meetings.FindBySlug, slug)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, meeting)
}

// List pages through the actor's meetings; admins see everyone's.
func (s *MeetingService) List(ctx context.Context, query dto.ListMeetingsQuery, actor Actor) ([]models.Meeting, *models.Pagination, error) {
	filter := models.MeetingFilter{
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if actor.Role != models.RoleAdmin {
		filter.OrganizerID = actor.ID
	}
	if query.Status != "" {
		status := models.MeetingStatus(strings.ToUpper(query.Status))
		switch status {
		case models.MeetingStatusProposing, models.MeetingStatusLocating, models.MeetingStatusConfirmed, models.MeetingStatusCancelled:
			filter.Status = &status
		default:
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown meeting status")
		}
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	meetings, total, err := s.meetings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings")
	}
	if meetings == nil {
		meetings = []models.Meeting{}
	}
	return meetings, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// AddWindow proposes another slot on an open meeting.
func (s *MeetingService) AddWindow(ctx context.Context, id string, input dto.WindowInput, actor Actor) (*models.TimeWindow, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, validationError(err, "invalid window payload")
	}
	meeting, err := s.owned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !meeting.Status.Open() {
		return nil, appErrors.ErrMeetingClosed
	}
	window, err := s.buildWindow(input, "window")
	if err != nil {
		return nil, err
	}
	window.MeetingID = meeting.ID
	if err := s.windows.Create(ctx, &window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add window")
	}
	s.invalidate(ctx, meeting.ID)
	return &window, nil
}

// DeleteWindow removes a proposed slot and its responses.
func (s *MeetingService) DeleteWindow(ctx context.Context, id, windowID string, actor Actor) error {
	meeting, err := s.owned(ctx, id, actor)
	if err != nil {
		return err
	}
	if !meeting.Status.Open() {
		return appErrors.ErrMeetingClosed
	}
	if err := s.windows.Delete(ctx, meeting.ID, windowID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "window not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete window")
	}
	s.invalidate(ctx, meeting.ID)
	return nil
}

// Confirm fixes the meeting on the overlap of the chosen window. When
// locations were suggested one of them must have been picked first.
func (s *MeetingService) Confirm(ctx context.Context, id string, req dto.ConfirmMeetingRequest, actor Actor) (*models.MeetingDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid confirm payload")
	}
	meeting, err := s.owned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !meeting.Status.Open() {
		return nil, appErrors.ErrMeetingClosed
	}

	window, err := s.windows.FindByID(ctx, meeting.ID, req.WindowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "window not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load window")
	}
	responses, err := s.responses.ListByWindow(ctx, window.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responses")
	}
	overlap, ok := windowOverlap(*window, responses)
	if !ok {
		return nil, appErrors.ErrNoOverlap
	}

	if meeting.LocationID == nil {
		locations, err := s.locations.ListByMeeting(ctx, meeting.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locations")
		}
		if len(locations) > 0 {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "pick a location before confirming")
		}
	}

	err = s.meetings.Confirm(ctx, meeting.ID, repository.ConfirmParams{
		WindowID: window.ID,
		Date:     window.DateLabel,
		Start:    overlap.OverlapStart,
		End:      overlap.OverlapEnd,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrMeetingClosed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm meeting")
	}
	s.invalidate(ctx, meeting.ID)
	s.logger.Info("meeting confirmed",
		zap.String("meeting_id", meeting.ID),
		zap.String("window_id", window.ID),
		zap.String("slot", overlap.OverlapStart+"-"+overlap.OverlapEnd),
	)

	confirmed, err := findMeeting(ctx, s.meetings.FindByID, meeting.ID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, confirmed)
}

// Cancel closes a meeting that has not been confirmed.
func (s *MeetingService) Cancel(ctx context.Context, id string, actor Actor) error {
	meeting, err := s.owned(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := s.meetings.UpdateStatus(ctx, meeting.ID, models.MeetingStatusCancelled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrMeetingClosed
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel meeting")
	}
	s.invalidate(ctx, meeting.ID)
	return nil
}

// Snapshot gathers everything needed to recompute the meeting offline.
func (s *MeetingService) Snapshot(ctx context.Context, id string) (*models.MeetingSnapshot, error) {
	meeting, err := findMeeting(ctx, s.meetings.FindByID, id)
	if err != nil {
		return nil, err
	}
	detail, err := s.detail(ctx, meeting)
	if err != nil {
		return nil, err
	}
	return &models.MeetingSnapshot{
		Meeting:   detail.Meeting,
		Windows:   detail.Windows,
		Invitees:  detail.Invitees,
		Responses: detail.Responses,
		Locations: detail.Locations,
		SavedAt:   time.Now().UTC(),
	}, nil
}

func (s *MeetingService) owned(ctx context.Context, id string, actor Actor) (*models.Meeting, error) {
	meeting, err := findMeeting(ctx, s.meetings.FindByID, id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(meeting) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "meeting belongs to another organizer")
	}
	return meeting, nil
}

func (s *MeetingService) detail(ctx context.Context, meeting *models.Meeting) (*models.MeetingDetail, error) {
	windows, err := s.windows.ListByMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load windows")
	}
	invitees, err := s.invitees.ListByMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invitees")
	}
	responses, err := s.responses.ListByMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responses")
	}
	locations, err := s.locations.ListByMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locations")
	}
	return &models.MeetingDetail{
		Meeting:   *meeting,
		Windows:   nonNil(windows),
		Invitees:  nonNil(invitees),
		Responses: nonNil(responses),
		Locations: nonNil(locations),
		Overlaps:  ComputeOverlaps(windows, responses),
	}, nil
}

// buildWindow parses and canonicalizes a proposed window.
func (s *MeetingService) buildWindow(input dto.WindowInput, subject string) (models.TimeWindow, error) {
	r, err := clock.NewRange(input.StartTime, input.EndTime)
	if err != nil {
		return models.TimeWindow{}, clockError(err, subject)
	}
	day := clock.Range{Start: s.cfg.DayStart, End: s.cfg.DayEnd}
	if day.Valid() && !day.Contains(r) {
		return models.TimeWindow{}, appErrors.Clone(appErrors.ErrOutOfRange,
			fmt.Sprintf("%s must fall within %s", subject, day))
	}
	return models.TimeWindow{
		DateLabel: strings.TrimSpace(input.DateLabel),
		StartTime: r.Start.String(),
		EndTime:   r.End.String(),
	}, nil
}

func (s *MeetingService) invalidate(ctx context.Context, meetingID string) {
	_ = s.cache.Invalidate(ctx, overlapCacheKey(meetingID))
}

func buildInvitees(inputs []dto.InviteeInput) ([]models.Invitee, error) {
	invitees := make([]models.Invitee, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for i, input := range inputs {
		key := repository.ResponderKey(input.Name)
		if key == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invitee %d needs a name", i+1))
		}
		if seen[key] {
			return nil, appErrors.Clone(appErrors.ErrConflict, "invitee names must be unique")
		}
		seen[key] = true

		subject := fmt.Sprintf("invitee %s", input.Name)
		earliest, err := optionalTime(input.EarliestStart, subject)
		if err != nil {
			return nil, err
		}
		latest, err := optionalTime(input.LatestEnd, subject)
		if err != nil {
			return nil, err
		}
		if earliest != nil && latest != nil {
			if _, err := clock.NewRange(*earliest, *latest); err != nil {
				return nil, clockError(err, subject)
			}
		}
		invitees = append(invitees, models.Invitee{
			Name:          strings.Join(strings.Fields(input.Name), " "),
			Email:         input.Email,
			EarliestStart: earliest,
			LatestEnd:     latest,
		})
	}
	return invitees, nil
}

// optionalTime canonicalizes an optional bound; unset collapses to nil.
func optionalTime(raw *string, subject string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := clock.Parse(*raw)
	if err != nil {
		return nil, clockError(err, subject)
	}
	if t.IsUnset() {
		return nil, nil
	}
	display := t.String()
	return &display, nil
}

func findMeeting(ctx context.Context, find func(context.Context, string) (*models.Meeting, error), key string) (*models.Meeting, error) {
	meeting, err := find(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}
	return meeting, nil
}

func overlapCacheKey(meetingID string) string {
	return "overlaps:" + meetingID
}

func generateSlug() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
