package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/huddle-api/internal/models"
)

const responseColumns = `id, window_id, meeting_id, responder_name, start_time, end_time, created_at, updated_at`

// ResponderKey is the normalised form responses are unique on.
func ResponderKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ResponseRepository persists invitee availability.
type ResponseRepository struct {
	db *sqlx.DB
}

// NewResponseRepository constructs the repository.
func NewResponseRepository(db *sqlx.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// Upsert stores resp, replacing the responder's earlier answer for the same window.
func (r *ResponseRepository) Upsert(ctx context.Context, resp *models.Response) error {
	now := time.Now().UTC()
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	resp.UpdatedAt = now

	const query = `INSERT INTO responses (id, window_id, meeting_id, responder_name, responder_key, start_time, end_time, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (window_id, responder_key) DO UPDATE SET
	responder_name = EXCLUDED.responder_name,
	start_time = EXCLUDED.start_time,
	end_time = EXCLUDED.end_time,
	updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query,
		resp.ID,
		resp.WindowID,
		resp.MeetingID,
		resp.ResponderName,
		ResponderKey(resp.ResponderName),
		resp.StartTime,
		resp.EndTime,
		now,
	)
	if err := row.Scan(&resp.ID, &resp.CreatedAt); err != nil {
		return fmt.Errorf("upsert response: %w", err)
	}
	return nil
}

// ListByMeeting returns all responses of a meeting.
func (r *ResponseRepository) ListByMeeting(ctx context.Context, meetingID string) ([]models.Response, error) {
	query := `SELECT ` + responseColumns + ` FROM responses WHERE meeting_id = $1 ORDER BY window_id, created_at ASC`
	var responses []models.Response
	if err := r.db.SelectContext(ctx, &responses, query, meetingID); err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return responses, nil
}

// ListByWindow returns the responses recorded against one window.
func (r *ResponseRepository) ListByWindow(ctx context.Context, windowID string) ([]models.Response, error) {
	query := `SELECT ` + responseColumns + ` FROM responses WHERE window_id = $1 ORDER BY created_at ASC`
	var responses []models.Response
	if err := r.db.SelectContext(ctx, &responses, query, windowID); err != nil {
		return nil, fmt.Errorf("list window responses: %w", err)
	}
	return responses, nil
}

// Delete withdraws a responder's answer; sql.ErrNoRows when there was none.
func (r *ResponseRepository) Delete(ctx context.Context, windowID, responder string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM responses WHERE window_id = $1 AND responder_key = $2`, windowID, ResponderKey(responder))
	if err != nil {
		return fmt.Errorf("delete response: %w", err)
	}
	return requireAffected(res, "delete response")
}
