package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/huddle-api/internal/models"
)

const inviteeColumns = `id, meeting_id, name, email, earliest_start, latest_end, created_at`

const insertInviteeQuery = `INSERT INTO invitees (id, meeting_id, name, email, earliest_start, latest_end, created_at)
VALUES (:id, :meeting_id, :name, :email, :earliest_start, :latest_end, :created_at)`

// InviteeRepository reads per-responder bounds.
type InviteeRepository struct {
	db *sqlx.DB
}

// NewInviteeRepository constructs the repository.
func NewInviteeRepository(db *sqlx.DB) *InviteeRepository {
	return &InviteeRepository{db: db}
}

// ListByMeeting returns every invitee of a meeting ordered by name.
func (r *InviteeRepository) ListByMeeting(ctx context.Context, meetingID string) ([]models.Invitee, error) {
	query := `SELECT ` + inviteeColumns + ` FROM invitees WHERE meeting_id = $1 ORDER BY name ASC`
	var invitees []models.Invitee
	if err := r.db.SelectContext(ctx, &invitees, query, meetingID); err != nil {
		return nil, fmt.Errorf("list invitees: %w", err)
	}
	return invitees, nil
}

// FindByName looks up an invitee by ResponderKey, so case and spacing do not
// matter. Unknown names return sql.ErrNoRows.
func (r *InviteeRepository) FindByName(ctx context.Context, meetingID, name string) (*models.Invitee, error) {
	query := `SELECT ` + inviteeColumns + ` FROM invitees WHERE meeting_id = $1 AND LOWER(name) = $2 LIMIT 1`
	var invitee models.Invitee
	if err := r.db.GetContext(ctx, &invitee, query, meetingID, ResponderKey(name)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find invitee: %w", err)
	}
	return &invitee, nil
}
