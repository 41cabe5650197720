package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/huddle-api/internal/dto"
	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/internal/repository"
	appErrors "github.com/noah-isme/huddle-api/pkg/errors"
)

// LocationService collects venue suggestions and votes.
type LocationService struct {
	meetings  meetingStore
	locations locationStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLocationService constructs the service.
func NewLocationService(meetings meetingStore, locations locationStore, validate *validator.Validate, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{meetings: meetings, locations: locations, validator: ensureValidator(validate), logger: logger}
}

// Suggest adds a venue. Names are unique per meeting regardless of case.
func (s *LocationService) Suggest(ctx context.Context, slug string, req dto.SuggestLocationRequest) (*models.LocationSuggestion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid location payload")
	}
	meeting, err := s.openMeeting(ctx, slug)
	if err != nil {
		return nil, err
	}

	suggestion := &models.LocationSuggestion{
		MeetingID:   meeting.ID,
		Name:        strings.TrimSpace(req.Name),
		Address:     req.Address,
		SuggestedBy: strings.TrimSpace(req.SuggestedBy),
	}
	if err := s.locations.Create(ctx, suggestion); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "location already suggested")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save location")
	}
	return suggestion, nil
}

// Vote backs a suggestion. Voting twice is accepted and counted once.
func (s *LocationService) Vote(ctx context.Context, slug, locationID string, req dto.VoteRequest) (*dto.VoteResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid vote payload")
	}
	meeting, err := s.openMeeting(ctx, slug)
	if err != nil {
		return nil, err
	}
	if _, err := s.suggestion(ctx, meeting.ID, locationID); err != nil {
		return nil, err
	}

	counted, err := s.locations.AddVote(ctx, locationID, req.Voter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record vote")
	}
	updated, err := s.suggestion(ctx, meeting.ID, locationID)
	if err != nil {
		return nil, err
	}
	return &dto.VoteResponse{SuggestionID: updated.ID, Votes: updated.Votes, Counted: counted}, nil
}

// List returns suggestions ordered by votes, then name.
func (s *LocationService) List(ctx context.Context, slug string) ([]models.LocationSuggestion, error) {
	meeting, err := findMeeting(ctx, s.meetings.FindBySlug, slug)
	if err != nil {
		return nil, err
	}
	locations, err := s.locations.ListByMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
	}
	return nonNil(locations), nil
}

// Pick records the organizer's chosen venue. The meeting moves to LOCATING
// until a time is confirmed.
func (s *LocationService) Pick(ctx context.Context, meetingID, locationID string, actor Actor) (*models.LocationSuggestion, error) {
	meeting, err := findMeeting(ctx, s.meetings.FindByID, meetingID)
	if err != nil {
		return nil, err
	}
	if !actor.owns(meeting) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "meeting belongs to another organizer")
	}
	if !meeting.Status.Open() {
		return nil, appErrors.ErrMeetingClosed
	}
	suggestion, err := s.suggestion(ctx, meeting.ID, locationID)
	if err != nil {
		return nil, err
	}
	if err := s.meetings.SetLocation(ctx, meeting.ID, suggestion.ID, models.MeetingStatusLocating); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrMeetingClosed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to pick location")
	}
	s.logger.Info("location picked", zap.String("meeting_id", meeting.ID), zap.String("location_id", suggestion.ID))
	return suggestion, nil
}

func (s *LocationService) openMeeting(ctx context.Context, slug string) (*models.Meeting, error) {
	meeting, err := findMeeting(ctx, s.meetings.FindBySlug, slug)
	if err != nil {
		return nil, err
	}
	if !meeting.Status.Open() {
		return nil, appErrors.ErrMeetingClosed
	}
	return meeting, nil
}

func (s *LocationService) suggestion(ctx context.Context, meetingID, id string) (*models.LocationSuggestion, error) {
	suggestion, err := s.locations.FindByID(ctx, meetingID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	return suggestion, nil
}
