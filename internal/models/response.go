package models

import (
	"time"

	"github.com/noah-isme/huddle-api/pkg/clock"
)

// Response is one invitee's availability inside a proposed window. There is
// at most one per (window, responder).
type Response struct {
	ID            string    `db:"id" json:"id"`
	WindowID      string    `db:"window_id" json:"window_id"`
	MeetingID     string    `db:"meeting_id" json:"meeting_id"`
	ResponderName string    `db:"responder_name" json:"responder_name"`
	StartTime     string    `db:"start_time" json:"start_time"`
	EndTime       string    `db:"end_time" json:"end_time"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Range parses the stored display strings into a validated range.
func (r Response) Range() (clock.Range, error) {
	return clock.NewRange(r.StartTime, r.EndTime)
}
