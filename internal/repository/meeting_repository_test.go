package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/huddle-api/internal/models"
)

var meetingRowColumns = []string{"id", "title", "description", "organizer_id", "organizer_name", "share_slug", "status", "timezone", "duration_minutes",
	"confirmed_window_id", "confirmed_date", "confirmed_start", "confirmed_end", "location_id", "created_at", "updated_at"}

func TestMeetingRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMeetingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO meetings").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO time_windows").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO time_windows").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO invitees").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	meeting := &models.Meeting{Title: "Lunch", OrganizerID: "u1", ShareSlug: "abc"}
	windows := []models.TimeWindow{
		{DateLabel: "2025-03-04", StartTime: "11:00 am", EndTime: "2:00 pm"},
		{DateLabel: "2025-03-05", StartTime: "12:00 pm", EndTime: "1:00 pm"},
	}
	invitees := []models.Invitee{{Name: "Ben"}}

	require.NoError(t, repo.Create(context.Background(), meeting, windows, invitees))
	assert.NotEmpty(t, meeting.ID)
	assert.Equal(t, models.MeetingStatusProposing, meeting.Status)
	assert.Equal(t, meeting.ID, windows[1].MeetingID)
	assert.Equal(t, 1, windows[1].Position)
	assert.Equal(t, meeting.ID, invitees[0].MeetingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepositoryCreateRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMeetingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO meetings").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Meeting{ShareSlug: "taken"}, nil, nil)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepositoryFindBySlug(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMeetingRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(meetingRowColumns).
		AddRow("m-1", "Lunch", nil, "u1", "Ana", "abc", "PROPOSING", "UTC", 60, nil, nil, nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM meetings WHERE share_slug = $1 LIMIT 1")).
		WithArgs("abc").
		WillReturnRows(rows)

	meeting, err := repo.FindBySlug(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "m-1", meeting.ID)
	assert.Nil(t, meeting.ConfirmedStart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMeetingRepository(db)

	now := time.Now()
	status := models.MeetingStatusConfirmed
	mock.ExpectQuery(regexp.QuoteMeta("FROM meetings WHERE 1=1 AND organizer_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 10 OFFSET 10")).
		WithArgs("u1", status).
		WillReturnRows(sqlmock.NewRows(meetingRowColumns).
			AddRow("m-1", "Lunch", nil, "u1", "Ana", "abc", "CONFIRMED", "UTC", 60, "w-1", "2025-03-04", "12:00 pm", "1:00 pm", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM meetings WHERE 1=1 AND organizer_id = $1 AND status = $2")).
		WithArgs("u1", status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	meetings, total, err := repo.List(context.Background(), models.MeetingFilter{OrganizerID: "u1", Status: &status, Page: 2, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "12:00 pm", *meetings[0].ConfirmedStart)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepositoryConfirmClosed(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMeetingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE meetings SET status = 'CONFIRMED'")).
		WithArgs("m-1", "w-1", "2025-03-04", "12:00 pm", "1:00 pm", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Confirm(context.Background(), "m-1", ConfirmParams{WindowID: "w-1", Date: "2025-03-04", Start: "12:00 pm", End: "1:00 pm"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
