package models

import "time"

// LocationSuggestion is a candidate venue with its current vote count.
type LocationSuggestion struct {
	ID          string    `db:"id" json:"id"`
	MeetingID   string    `db:"meeting_id" json:"meeting_id"`
	Name        string    `db:"name" json:"name"`
	Address     *string   `db:"address" json:"address,omitempty"`
	SuggestedBy string    `db:"suggested_by" json:"suggested_by"`
	Votes       int       `db:"votes" json:"votes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// LocationVote records a single voter backing a suggestion.
type LocationVote struct {
	SuggestionID string    `db:"suggestion_id" json:"suggestion_id"`
	VoterName    string    `db:"voter_name" json:"voter_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
