package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/huddle-api/internal/dto"
	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/pkg/clock"
	appErrors "github.com/noah-isme/huddle-api/pkg/errors"
)

// AvailabilityService handles the invitee side: responses, per-responder
// bounds, stepping and the shared overlaps.
type AvailabilityService struct {
	meetings  meetingStore
	windows   windowStore
	invitees  inviteeStore
	responses responseStore
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(meetings meetingStore, windows windowStore, invitees inviteeStore, responses responseStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		meetings:  meetings,
		windows:   windows,
		invitees:  invitees,
		responses: responses,
		cache:     cache,
		metrics:   metrics,
		validator: ensureValidator(validate),
		logger:    logger,
	}
}

// Respond records or replaces a responder's availability for one window.
func (s *AvailabilityService) Respond(ctx context.Context, slug, windowID string, req dto.RespondRequest) (*models.Response, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid response payload")
	}
	name := responderName(req.ResponderName)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "responder name is required")
	}

	meeting, window, err := s.openWindow(ctx, slug, windowID)
	if err != nil {
		return nil, err
	}

	r, err := clock.NewRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, clockError(err, "response")
	}
	allowed, err := s.responderRange(ctx, window, name)
	if err != nil {
		return nil, err
	}
	if !allowed.Contains(r) {
		return nil, appErrors.Clone(appErrors.ErrOutOfRange, fmt.Sprintf("response must fall within %s", allowed))
	}

	resp := &models.Response{
		WindowID:      window.ID,
		MeetingID:     meeting.ID,
		ResponderName: name,
		StartTime:     r.Start.String(),
		EndTime:       r.End.String(),
	}
	if err := s.responses.Upsert(ctx, resp); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save response")
	}
	_ = s.cache.Invalidate(ctx, overlapCacheKey(meeting.ID))
	s.metrics.RecordResponse("submitted")

	s.logger.Info("response recorded",
		zap.String("meeting_id", meeting.ID),
		zap.String("window_id", window.ID),
		zap.String("range", r.String()),
	)
	return resp, nil
}

// Withdraw deletes a responder's answer for a window.
func (s *AvailabilityService) Withdraw(ctx context.Context, slug, windowID, responder string) error {
	meeting, window, err := s.openWindow(ctx, slug, windowID)
	if err != nil {
		return err
	}
	if err := s.responses.Delete(ctx, window.ID, responder); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "response not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw response")
	}
	_ = s.cache.Invalidate(ctx, overlapCacheKey(meeting.ID))
	s.metrics.RecordResponse("withdrawn")
	return nil
}

// Overlaps returns the shared range of every window that has one, and
// whether it was served from cache.
func (s *AvailabilityService) Overlaps(ctx context.Context, slug string) ([]models.OverlapResult, bool, error) {
	meeting, err := findMeeting(ctx, s.meetings.FindBySlug, slug)
	if err != nil {
		return nil, false, err
	}
	results, hit, err := remember(ctx, s.cache, overlapCacheKey(meeting.ID), func() ([]models.OverlapResult, error) {
		windows, err := s.windows.ListByMeeting(ctx, meeting.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load windows")
		}
		responses, err := s.responses.ListByMeeting(ctx, meeting.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responses")
		}
		results := ComputeOverlaps(windows, responses)
		s.metrics.RecordOverlaps(len(results), len(windows)-len(results))
		return results, nil
	})
	if err != nil {
		return nil, false, err
	}
	if hit {
		s.logger.Debug("overlaps served from cache", zap.String("meeting_id", meeting.ID))
	}
	return results, hit, nil
}

// Bounds returns the earliest start and latest end a responder may pick.
func (s *AvailabilityService) Bounds(ctx context.Context, slug, windowID, responder string) (*dto.BoundsResponse, error) {
	meeting, err := findMeeting(ctx, s.meetings.FindBySlug, slug)
	if err != nil {
		return nil, err
	}
	window, err := s.window(ctx, meeting.ID, windowID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.responderRange(ctx, window, responder)
	if err != nil {
		return nil, err
	}
	return &dto.BoundsResponse{
		WindowID:  window.ID,
		Responder: responderName(responder),
		Min:       allowed.Start.String(),
		Max:       allowed.End.String(),
	}, nil
}

// Step moves one end of a responder's draft by a quantum. A blocked step is
// reported through Moved, never as an error.
func (s *AvailabilityService) Step(ctx context.Context, slug, windowID string, req dto.StepRequest) (*dto.StepResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid step payload")
	}
	meeting, err := findMeeting(ctx, s.meetings.FindBySlug, slug)
	if err != nil {
		return nil, err
	}
	window, err := s.window(ctx, meeting.ID, windowID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.responderRange(ctx, window, req.Responder)
	if err != nil {
		return nil, err
	}

	current, err := clock.Parse(req.Current)
	if err != nil {
		return nil, clockError(err, "current")
	}
	paired, err := clock.Parse(req.Paired)
	if err != nil {
		return nil, clockError(err, "paired")
	}

	bounds := allowed.Bounds()
	if req.Field == "start" {
		bounds = clock.StartBounds(paired, bounds)
	} else {
		bounds = clock.EndBounds(paired, bounds)
	}

	resp := stepWithin(current, direction(req.Direction), bounds)
	s.metrics.RecordClockStep(resp.Moved)
	return resp, nil
}

func (s *AvailabilityService) openWindow(ctx context.Context, slug, windowID string) (*models.Meeting, *models.TimeWindow, error) {
	meeting, err := findMeeting(ctx, s.meetings.FindBySlug, slug)
	if err != nil {
		return nil, nil, err
	}
	if !meeting.Status.Open() {
		return nil, nil, appErrors.ErrMeetingClosed
	}
	window, err := s.window(ctx, meeting.ID, windowID)
	if err != nil {
		return nil, nil, err
	}
	return meeting, window, nil
}

func (s *AvailabilityService) window(ctx context.Context, meetingID, windowID string) (*models.TimeWindow, error) {
	window, err := s.windows.FindByID(ctx, meetingID, windowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "window not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load window")
	}
	return window, nil
}

// responderRange is the proposing window narrowed by the responder's
// configured earliest start and latest end, if they are a known invitee.
func (s *AvailabilityService) responderRange(ctx context.Context, window *models.TimeWindow, responder string) (clock.Range, error) {
	base, err := window.Range()
	if err != nil {
		return clock.Range{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored window is invalid")
	}
	name := responderName(responder)
	if name == "" {
		return base, nil
	}

	invitee, err := s.invitees.FindByName(ctx, window.MeetingID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return base, nil
		}
		return clock.Range{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invitee")
	}

	personal := inviteeRange(invitee, base)
	allowed, ok := clock.Intersect(base, personal)
	if !personal.Valid() || !ok {
		return clock.Range{}, appErrors.Clone(appErrors.ErrOutOfRange,
			fmt.Sprintf("%s is not available during %s", invitee.Name, base))
	}
	return allowed, nil
}

// responderName collapses runs of whitespace the way names are stored.
func responderName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// inviteeRange fills unset or unreadable bounds from base.
func inviteeRange(invitee *models.Invitee, base clock.Range) clock.Range {
	r := base
	if invitee.EarliestStart != nil {
		if t, err := clock.Parse(*invitee.EarliestStart); err == nil && !t.IsUnset() {
			r.Start = t
		}
	}
	if invitee.LatestEnd != nil {
		if t, err := clock.Parse(*invitee.LatestEnd); err == nil && !t.IsUnset() {
			r.End = t
		}
	}
	return r
}

func stepWithin(current clock.Time, dir clock.Direction, bounds clock.Bounds) *dto.StepResponse {
	next, moved := clock.Step(current, dir, bounds)
	return &dto.StepResponse{
		Time:         next.String(),
		Minutes:      next.Minutes(),
		Moved:        moved,
		CanIncrement: clock.CanStep(next, clock.Forward, bounds),
		CanDecrement: clock.CanStep(next, clock.Backward, bounds),
	}
}

func direction(raw string) clock.Direction {
	if raw == "backward" {
		return clock.Backward
	}
	return clock.Forward
}
