// Package ics renders confirmed meetings as iCalendar documents.
package ics

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/noah-isme/huddle-api/pkg/clock"
)

// DateLayout is the only date_label form that can become a calendar event.
const DateLayout = "2006-01-02"

const productID = "huddle"

// Attendee is a participant listed on the event.
type Attendee struct {
	Name  string
	Email string
}

// Event is a single VEVENT.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Organizer   Attendee
	Start       time.Time
	End         time.Time
	Stamp       time.Time
	Attendees   []Attendee
}

// EventTimes anchors a clock range on an ISO date in the named timezone.
// An empty timezone means UTC.
func EventTimes(date string, r clock.Range, timezone string) (time.Time, time.Time, error) {
	if !r.Valid() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s", clock.ErrInvalidWindow, r)
	}
	loc := time.UTC
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
	}
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	start := day.Add(time.Duration(r.Start.Minutes()) * time.Minute)
	end := day.Add(time.Duration(r.End.Minutes()) * time.Minute)
	return start, end, nil
}

// Render serializes events into a PUBLISH calendar.
func Render(timezone string, events ...Event) (string, error) {
	if len(events) == 0 {
		return "", fmt.Errorf("ics requires at least one event")
	}
	cal := ical.NewCalendarFor(productID)
	cal.SetMethod(ical.MethodPublish)
	if timezone != "" {
		cal.SetXWRTimezone(timezone)
	}

	for _, ev := range events {
		if ev.UID == "" {
			return "", fmt.Errorf("event uid required")
		}
		if !ev.End.After(ev.Start) {
			return "", fmt.Errorf("event %s ends before it starts", ev.UID)
		}
		stamp := ev.Stamp
		if stamp.IsZero() {
			stamp = time.Now()
		}

		vevent := cal.AddEvent(ev.UID)
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(ev.Start)
		vevent.SetEndAt(ev.End)
		vevent.SetSummary(ev.Summary)
		vevent.SetStatus(ical.ObjectStatusConfirmed)
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			vevent.SetLocation(ev.Location)
		}
		if ev.Organizer.Name != "" || ev.Organizer.Email != "" {
			vevent.SetOrganizer(address(ev.Organizer), ical.WithCN(ev.Organizer.Name))
		}
		for _, a := range ev.Attendees {
			vevent.AddAttendee(address(a), ical.WithCN(a.Name), ical.ParticipationStatusAccepted)
		}
	}

	return cal.Serialize(), nil
}

// address returns a mailto target; responders without an email get a
// non-routable placeholder so the CN still shows in calendar clients.
func address(a Attendee) string {
	if a.Email != "" {
		return a.Email
	}
	local := url.PathEscape(strings.ToLower(strings.Join(strings.Fields(a.Name), ".")))
	if local == "" {
		local = "guest"
	}
	return local + "@invitee.invalid"
}
