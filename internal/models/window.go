package models

import (
	"time"

	"github.com/noah-isme/huddle-api/pkg/clock"
)

// TimeWindow is a slot proposed by the organizer. DateLabel is free text
// ("Tue, Mar 4") unless the meeting is to be exported as a calendar event,
// which needs an ISO date.
type TimeWindow struct {
	ID        string    `db:"id" json:"id"`
	MeetingID string    `db:"meeting_id" json:"meeting_id"`
	DateLabel string    `db:"date_label" json:"date_label"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Range parses the stored display strings into a validated range.
func (w TimeWindow) Range() (clock.Range, error) {
	return clock.NewRange(w.StartTime, w.EndTime)
}
