package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/huddle-api/internal/models"
)

const meetingColumns = `id, title, description, organizer_id, organizer_name, share_slug, status, timezone, duration_minutes,
confirmed_window_id, confirmed_date, confirmed_start, confirmed_end, location_id, created_at, updated_at`

// MeetingRepository persists meetings together with their proposed windows.
type MeetingRepository struct {
	db *sqlx.DB
}

// NewMeetingRepository constructs the repository.
func NewMeetingRepository(db *sqlx.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create inserts the meeting, its windows and invitees in one transaction.
func (r *MeetingRepository) Create(ctx context.Context, meeting *models.Meeting, windows []models.TimeWindow, invitees []models.Invitee) error {
	now := time.Now().UTC()
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	if meeting.Status == "" {
		meeting.Status = models.MeetingStatusProposing
	}
	meeting.CreatedAt, meeting.UpdatedAt = now, now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create meeting: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertMeeting = `INSERT INTO meetings (id, title, description, organizer_id, organizer_name, share_slug, status, timezone, duration_minutes, created_at, updated_at)
VALUES (:id, :title, :description, :organizer_id, :organizer_name, :share_slug, :status, :timezone, :duration_minutes, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertMeeting, meeting); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create meeting slug %s: %w", meeting.ShareSlug, ErrDuplicate)
		}
		return fmt.Errorf("create meeting: %w", err)
	}

	for i := range windows {
		prepareWindow(&windows[i], meeting.ID, i, now)
		if _, err := tx.NamedExecContext(ctx, insertWindowQuery, windows[i]); err != nil {
			return fmt.Errorf("create window %d: %w", i, err)
		}
	}

	for i := range invitees {
		inv := &invitees[i]
		if inv.ID == "" {
			inv.ID = uuid.NewString()
		}
		inv.MeetingID = meeting.ID
		inv.CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, insertInviteeQuery, inv); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("create invitee %s: %w", inv.Name, ErrDuplicate)
			}
			return fmt.Errorf("create invitee: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create meeting: %w", err)
	}
	return nil
}

// FindByID returns a meeting by identifier.
func (r *MeetingRepository) FindByID(ctx context.Context, id string) (*models.Meeting, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindBySlug returns a meeting by its public share slug.
func (r *MeetingRepository) FindBySlug(ctx context.Context, slug string) (*models.Meeting, error) {
	return r.findOne(ctx, `WHERE share_slug = $1`, slug)
}

func (r *MeetingRepository) findOne(ctx context.Context, where string, arg interface{}) (*models.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings ` + where + ` LIMIT 1`
	var meeting models.Meeting
	if err := r.db.GetContext(ctx, &meeting, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find meeting: %w", err)
	}
	return &meeting, nil
}

// List returns meetings matching filter together with the total count.
func (r *MeetingRepository) List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, int, error) {
	baseQuery := `FROM meetings WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.OrganizerID != "" {
		conditions = append(conditions, fmt.Sprintf("organizer_id = $%d", len(args)+1))
		args = append(args, filter.OrganizerID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", meetingColumns, baseQuery, pageSize, offset)
	var meetings []models.Meeting
	if err := r.db.SelectContext(ctx, &meetings, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list meetings: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count meetings: %w", err)
	}
	return meetings, total, nil
}

// UpdateStatus moves an open meeting to status. It returns sql.ErrNoRows
// when the meeting is missing or no longer open.
func (r *MeetingRepository) UpdateStatus(ctx context.Context, id string, status models.MeetingStatus) error {
	const query = `UPDATE meetings SET status = $2, updated_at = $3 WHERE id = $1 AND status IN ('PROPOSING', 'LOCATING')`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update meeting status: %w", err)
	}
	return requireAffected(res, "update meeting status")
}

// SetLocation records the picked location and moves the meeting to status.
func (r *MeetingRepository) SetLocation(ctx context.Context, id, locationID string, status models.MeetingStatus) error {
	const query = `UPDATE meetings SET location_id = $2, status = $3, updated_at = $4 WHERE id = $1 AND status IN ('PROPOSING', 'LOCATING')`
	res, err := r.db.ExecContext(ctx, query, id, locationID, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set meeting location: %w", err)
	}
	return requireAffected(res, "set meeting location")
}

// ConfirmParams is the final slot written by Confirm.
type ConfirmParams struct {
	WindowID string
	Date     string
	Start    string
	End      string
}

// Confirm stores the chosen slot and marks the meeting CONFIRMED.
func (r *MeetingRepository) Confirm(ctx context.Context, id string, params ConfirmParams) error {
	const query = `UPDATE meetings SET status = 'CONFIRMED', confirmed_window_id = $2, confirmed_date = $3, confirmed_start = $4, confirmed_end = $5, updated_at = $6
WHERE id = $1 AND status IN ('PROPOSING', 'LOCATING')`
	res, err := r.db.ExecContext(ctx, query, id, params.WindowID, params.Date, params.Start, params.End, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("confirm meeting: %w", err)
	}
	return requireAffected(res, "confirm meeting")
}

func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
