package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/internal/repository"
	"github.com/noah-isme/huddle-api/pkg/clock"
	appErrors "github.com/noah-isme/huddle-api/pkg/errors"
	"github.com/noah-isme/huddle-api/pkg/ics"
)

type organizerLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CalendarFile is a rendered iCalendar attachment.
type CalendarFile struct {
	Filename string
	Body     []byte
}

// CalendarService renders confirmed meetings for "add to calendar".
type CalendarService struct {
	meetings  meetingStore
	responses responseStore
	invitees  inviteeStore
	locations locationStore
	users     organizerLookup
	logger    *zap.Logger
	uidDomain string
}

// NewCalendarService constructs the service. uidDomain qualifies event UIDs.
func NewCalendarService(meetings meetingStore, responses responseStore, invitees inviteeStore, locations locationStore, users organizerLookup, uidDomain string, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if uidDomain == "" {
		uidDomain = "huddle.local"
	}
	return &CalendarService{
		meetings:  meetings,
		responses: responses,
		invitees:  invitees,
		locations: locations,
		users:     users,
		logger:    logger,
		uidDomain: uidDomain,
	}
}

// ICS renders the confirmed slot behind slug.
func (s *CalendarService) ICS(ctx context.Context, slug string) (*CalendarFile, error) {
	meeting, err := findMeeting(ctx, s.meetings.FindBySlug, slug)
	if err != nil {
		return nil, err
	}
	if meeting.Status != models.MeetingStatusConfirmed || meeting.ConfirmedStart == nil || meeting.ConfirmedEnd == nil ||
		meeting.ConfirmedDate == nil || meeting.ConfirmedWindowID == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "meeting is not confirmed yet")
	}

	slot, err := clock.NewRange(*meeting.ConfirmedStart, *meeting.ConfirmedEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored confirmation is invalid")
	}
	start, end, err := ics.EventTimes(*meeting.ConfirmedDate, slot, meeting.Timezone)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status,
			fmt.Sprintf("confirmed date %q must look like %s", *meeting.ConfirmedDate, ics.DateLayout))
	}

	event := ics.Event{
		UID:       meeting.ID + "@" + s.uidDomain,
		Summary:   meeting.Title,
		Start:     start,
		End:       end,
		Stamp:     meeting.UpdatedAt,
		Organizer: ics.Attendee{Name: meeting.OrganizerName},
	}
	if meeting.Description != nil {
		event.Description = *meeting.Description
	}
	if organizer, err := s.users.FindByID(ctx, meeting.OrganizerID); err == nil {
		event.Organizer.Email = organizer.Email
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("organizer lookup failed", zap.String("meeting_id", meeting.ID), zap.Error(err))
	}

	if meeting.LocationID != nil {
		location, err := s.locations.FindByID(ctx, meeting.ID, *meeting.LocationID)
		switch {
		case err == nil:
			event.Location = location.Name
			if location.Address != nil && *location.Address != "" {
				event.Location += ", " + *location.Address
			}
		case !errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
		}
	}

	attendees, err := s.attendees(ctx, meeting)
	if err != nil {
		return nil, err
	}
	event.Attendees = attendees

	body, err := ics.Render(meeting.Timezone, event)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar")
	}
	return &CalendarFile{Filename: calendarFilename(meeting.Title), Body: []byte(body)}, nil
}

// attendees lists everyone who answered the confirmed window, with the
// email configured on their invitee record when there is one.
func (s *CalendarService) attendees(ctx context.Context, meeting *models.Meeting) ([]ics.Attendee, error) {
	responses, err := s.responses.ListByWindow(ctx, *meeting.ConfirmedWindowID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responses")
	}
	invitees, err := s.invitees.ListByMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invitees")
	}
	emails := make(map[string]string, len(invitees))
	for _, inv := range invitees {
		if inv.Email != nil {
			emails[repository.ResponderKey(inv.Name)] = *inv.Email
		}
	}
	out := make([]ics.Attendee, 0, len(responses))
	for _, resp := range responses {
		out = append(out, ics.Attendee{Name: resp.ResponderName, Email: emails[repository.ResponderKey(resp.ResponderName)]})
	}
	return out, nil
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

func calendarFilename(title string) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if base == "" {
		base = "meeting"
	}
	return base + ".ics"
}
