package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/huddle-api/internal/models"
)

const locationSelect = `SELECT s.id, s.meeting_id, s.name, s.address, s.suggested_by, s.created_at, COUNT(v.voter_key) AS votes
FROM location_suggestions s
LEFT JOIN location_votes v ON v.suggestion_id = s.id`

const locationGroup = ` GROUP BY s.id, s.meeting_id, s.name, s.address, s.suggested_by, s.created_at`

// LocationRepository persists location suggestions and votes.
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository constructs the repository.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Create inserts a suggestion. A name already suggested for the meeting
// (case-insensitive) yields ErrDuplicate.
func (r *LocationRepository) Create(ctx context.Context, s *models.LocationSuggestion) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO location_suggestions (id, meeting_id, name, name_key, address, suggested_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.MeetingID, s.Name, ResponderKey(s.Name), s.Address, s.SuggestedBy, s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create location %s: %w", s.Name, ErrDuplicate)
		}
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// FindByID returns a suggestion with its vote count.
func (r *LocationRepository) FindByID(ctx context.Context, meetingID, id string) (*models.LocationSuggestion, error) {
	query := locationSelect + ` WHERE s.meeting_id = $1 AND s.id = $2` + locationGroup
	var s models.LocationSuggestion
	if err := r.db.GetContext(ctx, &s, query, meetingID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find location: %w", err)
	}
	return &s, nil
}

// ListByMeeting returns suggestions ordered by votes, then name.
func (r *LocationRepository) ListByMeeting(ctx context.Context, meetingID string) ([]models.LocationSuggestion, error) {
	query := locationSelect + ` WHERE s.meeting_id = $1` + locationGroup + ` ORDER BY votes DESC, LOWER(s.name) ASC`
	var suggestions []models.LocationSuggestion
	if err := r.db.SelectContext(ctx, &suggestions, query, meetingID); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return suggestions, nil
}

// AddVote records voter's vote and reports whether it was new.
func (r *LocationRepository) AddVote(ctx context.Context, suggestionID, voter string) (bool, error) {
	const query = `INSERT INTO location_votes (suggestion_id, voter_name, voter_key, created_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (suggestion_id, voter_key) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, suggestionID, voter, ResponderKey(voter), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("add vote: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add vote rows affected: %w", err)
	}
	return affected > 0, nil
}
