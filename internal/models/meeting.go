package models

import "time"

// MeetingStatus captures where a meeting sits in the coordination flow.
type MeetingStatus string

const (
	MeetingStatusProposing MeetingStatus = "PROPOSING"
	MeetingStatusLocating  MeetingStatus = "LOCATING"
	MeetingStatusConfirmed MeetingStatus = "CONFIRMED"
	MeetingStatusCancelled MeetingStatus = "CANCELLED"
)

// Open reports whether the meeting still accepts windows, responses and votes.
func (s MeetingStatus) Open() bool {
	return s == MeetingStatusProposing || s == MeetingStatusLocating
}

// Meeting is a gathering proposed by an organizer. Confirmed times are
// stored as display strings, the same as window times.
type Meeting struct {
	ID                string        `db:"id" json:"id"`
	Title             string        `db:"title" json:"title"`
	Description       *string       `db:"description" json:"description,omitempty"`
	OrganizerID       string        `db:"organizer_id" json:"organizer_id"`
	OrganizerName     string        `db:"organizer_name" json:"organizer_name"`
	ShareSlug         string        `db:"share_slug" json:"share_slug"`
	Status            MeetingStatus `db:"status" json:"status"`
	Timezone          string        `db:"timezone" json:"timezone"`
	DurationMinutes   int           `db:"duration_minutes" json:"duration_minutes"`
	ConfirmedWindowID *string       `db:"confirmed_window_id" json:"confirmed_window_id,omitempty"`
	ConfirmedDate     *string       `db:"confirmed_date" json:"confirmed_date,omitempty"`
	ConfirmedStart    *string       `db:"confirmed_start" json:"confirmed_start,omitempty"`
	ConfirmedEnd      *string       `db:"confirmed_end" json:"confirmed_end,omitempty"`
	LocationID        *string       `db:"location_id" json:"location_id,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// MeetingFilter captures filtering criteria for listing meetings.
type MeetingFilter struct {
	OrganizerID string
	Status      *MeetingStatus
	Search      string
	Page        int
	PageSize    int
}

// MeetingDetail aggregates everything an invitee page needs.
type MeetingDetail struct {
	Meeting   Meeting              `json:"meeting"`
	Windows   []TimeWindow         `json:"windows"`
	Invitees  []Invitee            `json:"invitees"`
	Responses []Response           `json:"responses"`
	Locations []LocationSuggestion `json:"locations"`
	Overlaps  []OverlapResult      `json:"overlaps"`
}
