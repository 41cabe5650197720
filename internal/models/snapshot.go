package models

import "time"

// MeetingSnapshot is a self-contained copy of a meeting, enough to recompute
// overlaps without the database.
type MeetingSnapshot struct {
	Meeting   Meeting              `json:"meeting"`
	Windows   []TimeWindow         `json:"windows"`
	Invitees  []Invitee            `json:"invitees"`
	Responses []Response           `json:"responses"`
	Locations []LocationSuggestion `json:"locations"`
	SavedAt   time.Time            `json:"saved_at"`
}

// ResponsesFor returns the responses recorded against windowID.
func (s MeetingSnapshot) ResponsesFor(windowID string) []Response {
	var out []Response
	for _, r := range s.Responses {
		if r.WindowID == windowID {
			out = append(out, r)
		}
	}
	return out
}
