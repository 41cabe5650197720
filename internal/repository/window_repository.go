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

const windowColumns = `id, meeting_id, date_label, start_time, end_time, position, created_at`

const insertWindowQuery = `INSERT INTO time_windows (id, meeting_id, date_label, start_time, end_time, position, created_at)
VALUES (:id, :meeting_id, :date_label, :start_time, :end_time, :position, :created_at)`

func prepareWindow(w *models.TimeWindow, meetingID string, position int, now time.Time) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.MeetingID = meetingID
	w.Position = position
	w.CreatedAt = now
}

// WindowRepository persists proposed time windows.
type WindowRepository struct {
	db *sqlx.DB
}

// NewWindowRepository constructs the repository.
func NewWindowRepository(db *sqlx.DB) *WindowRepository {
	return &WindowRepository{db: db}
}

// ListByMeeting returns the windows of a meeting in proposal order.
func (r *WindowRepository) ListByMeeting(ctx context.Context, meetingID string) ([]models.TimeWindow, error) {
	query := `SELECT ` + windowColumns + ` FROM time_windows WHERE meeting_id = $1 ORDER BY position ASC, created_at ASC`
	var windows []models.TimeWindow
	if err := r.db.SelectContext(ctx, &windows, query, meetingID); err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	return windows, nil
}

// FindByID returns a window scoped to its meeting.
func (r *WindowRepository) FindByID(ctx context.Context, meetingID, id string) (*models.TimeWindow, error) {
	query := `SELECT ` + windowColumns + ` FROM time_windows WHERE meeting_id = $1 AND id = $2 LIMIT 1`
	var window models.TimeWindow
	if err := r.db.GetContext(ctx, &window, query, meetingID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find window: %w", err)
	}
	return &window, nil
}

// Create appends a window after the meeting's existing ones.
func (r *WindowRepository) Create(ctx context.Context, window *models.TimeWindow) error {
	var next int
	const positionQuery = `SELECT COALESCE(MAX(position) + 1, 0) FROM time_windows WHERE meeting_id = $1`
	if err := r.db.GetContext(ctx, &next, positionQuery, window.MeetingID); err != nil {
		return fmt.Errorf("next window position: %w", err)
	}
	prepareWindow(window, window.MeetingID, next, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, insertWindowQuery, window); err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	return nil
}

// Delete removes a window; its responses cascade.
func (r *WindowRepository) Delete(ctx context.Context, meetingID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_windows WHERE meeting_id = $1 AND id = $2`, meetingID, id)
	if err != nil {
		return fmt.Errorf("delete window: %w", err)
	}
	return requireAffected(res, "delete window")
}
