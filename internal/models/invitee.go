package models

import "time"

// Invitee configures how far a named responder may move their times.
// Unset bounds fall back to the proposing window.
type Invitee struct {
	ID            string    `db:"id" json:"id"`
	MeetingID     string    `db:"meeting_id" json:"meeting_id"`
	Name          string    `db:"name" json:"name"`
	Email         *string   `db:"email" json:"email,omitempty"`
	EarliestStart *string   `db:"earliest_start" json:"earliest_start,omitempty"`
	LatestEnd     *string   `db:"latest_end" json:"latest_end,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
