package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/huddle-api/internal/dto"
	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/internal/service"
	appErrors "github.com/noah-isme/huddle-api/pkg/errors"
)

type meetingServiceMock struct {
	createReq   dto.CreateMeetingRequest
	createActor service.Actor
	createErr   error
	listQuery   dto.ListMeetingsQuery
	confirmReq  dto.ConfirmMeetingRequest
	confirmErr  error
	deleted     [2]string
	cancelled   string
	cancelErr   error
}

func (m *meetingServiceMock) Create(ctx context.Context, req dto.CreateMeetingRequest, actor service.Actor) (*models.MeetingDetail, error) {
	m.createReq = req
	m.createActor = actor
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.MeetingDetail{Meeting: models.Meeting{ID: "m-1", Title: req.Title, ShareSlug: "team-lunch"}}, nil
}

func (m *meetingServiceMock) Get(ctx context.Context, id string, actor service.Actor) (*models.MeetingDetail, error) {
	if id != "m-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting not found")
	}
	return &models.MeetingDetail{Meeting: models.Meeting{ID: id}}, nil
}

func (m *meetingServiceMock) List(ctx context.Context, query dto.ListMeetingsQuery, actor service.Actor) ([]models.Meeting, *models.Pagination, error) {
	m.listQuery = query
	return []models.Meeting{{ID: "m-1"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (m *meetingServiceMock) AddWindow(ctx context.Context, id string, input dto.WindowInput, actor service.Actor) (*models.TimeWindow, error) {
	return &models.TimeWindow{ID: "w-9", MeetingID: id, StartTime: input.StartTime, EndTime: input.EndTime}, nil
}

func (m *meetingServiceMock) DeleteWindow(ctx context.Context, id, windowID string, actor service.Actor) error {
	m.deleted = [2]string{id, windowID}
	return nil
}

func (m *meetingServiceMock) Confirm(ctx context.Context, id string, req dto.ConfirmMeetingRequest, actor service.Actor) (*models.MeetingDetail, error) {
	m.confirmReq = req
	if m.confirmErr != nil {
		return nil, m.confirmErr
	}
	return &models.MeetingDetail{Meeting: models.Meeting{ID: id, Status: models.MeetingStatusConfirmed}}, nil
}

func (m *meetingServiceMock) Cancel(ctx context.Context, id string, actor service.Actor) error {
	m.cancelled = id
	return m.cancelErr
}

func TestMeetingHandlerCreate(t *testing.T) {
	svc := &meetingServiceMock{}
	h := NewMeetingHandler(svc)

	w := perform(t, h.Create, call{
		method: http.MethodPost,
		target: "/meetings",
		body:   `{"title":"Team lunch","windows":[{"dateLabel":"Tue Mar 4","startTime":"11:30 am","endTime":"1:30 pm"}]}`,
		claims: organizerClaims,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Team lunch", svc.createReq.Title)
	require.Len(t, svc.createReq.Windows, 1)
	assert.Equal(t, "11:30 am", svc.createReq.Windows[0].StartTime)
	assert.Equal(t, service.Actor{ID: "u-1", Name: "Dana", Role: models.RoleOrganizer}, svc.createActor)
}

func TestMeetingHandlerCreateRequiresUser(t *testing.T) {
	svc := &meetingServiceMock{}
	w := perform(t, NewMeetingHandler(svc).Create, call{method: http.MethodPost, target: "/meetings", body: `{}`})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.createReq.Title)
}

func TestMeetingHandlerCreateMalformedBody(t *testing.T) {
	w := perform(t, NewMeetingHandler(&meetingServiceMock{}).Create, call{
		method: http.MethodPost,
		target: "/meetings",
		body:   `{"title":`,
		claims: organizerClaims,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestMeetingHandlerCreateServiceError(t *testing.T) {
	svc := &meetingServiceMock{createErr: appErrors.ErrInvalidWindow}
	w := perform(t, NewMeetingHandler(svc).Create, call{
		method: http.MethodPost,
		target: "/meetings",
		body:   `{"title":"x","windows":[]}`,
		claims: organizerClaims,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_WINDOW", errorCode(t, w))
}

func TestMeetingHandlerList(t *testing.T) {
	svc := &meetingServiceMock{}
	w := perform(t, NewMeetingHandler(svc).List, call{
		method: http.MethodGet,
		target: "/meetings?status=PROPOSING&q=lunch&page=2&page_size=5",
		claims: organizerClaims,
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ListMeetingsQuery{Status: "PROPOSING", Search: "lunch", Page: 2, PageSize: 5}, svc.listQuery)
	body := decodeEnvelope(t, w)
	assert.Equal(t, float64(1), body["pagination"].(map[string]interface{})["total_count"])
}

func TestMeetingHandlerListBadQuery(t *testing.T) {
	w := perform(t, NewMeetingHandler(&meetingServiceMock{}).List, call{
		method: http.MethodGet,
		target: "/meetings?page=two",
		claims: organizerClaims,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeetingHandlerGetNotFound(t *testing.T) {
	w := perform(t, NewMeetingHandler(&meetingServiceMock{}).Get, call{
		method: http.MethodGet,
		target: "/meetings/nope",
		claims: organizerClaims,
		params: gin.Params{{Key: "id", Value: "nope"}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMeetingHandlerWindows(t *testing.T) {
	svc := &meetingServiceMock{}
	h := NewMeetingHandler(svc)

	w := perform(t, h.AddWindow, call{
		method: http.MethodPost,
		target: "/meetings/m-1/windows",
		body:   `{"dateLabel":"Wed","startTime":"9:00 am","endTime":"10:00 am"}`,
		claims: organizerClaims,
		params: gin.Params{{Key: "id", Value: "m-1"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "w-9", decodeEnvelope(t, w)["data"].(map[string]interface{})["id"])

	w = perform(t, h.DeleteWindow, call{
		method: http.MethodDelete,
		target: "/meetings/m-1/windows/w-9",
		claims: organizerClaims,
		params: gin.Params{{Key: "id", Value: "m-1"}, {Key: "windowId", Value: "w-9"}},
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, [2]string{"m-1", "w-9"}, svc.deleted)
}

func TestMeetingHandlerConfirm(t *testing.T) {
	svc := &meetingServiceMock{}
	w := perform(t, NewMeetingHandler(svc).Confirm, call{
		method: http.MethodPost,
		target: "/meetings/m-1/confirm",
		body:   `{"windowId":"w-1"}`,
		claims: organizerClaims,
		params: gin.Params{{Key: "id", Value: "m-1"}},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "w-1", svc.confirmReq.WindowID)
}

func TestMeetingHandlerConfirmNoOverlap(t *testing.T) {
	svc := &meetingServiceMock{confirmErr: appErrors.ErrNoOverlap}
	w := perform(t, NewMeetingHandler(svc).Confirm, call{
		method: http.MethodPost,
		target: "/meetings/m-1/confirm",
		body:   `{"windowId":"w-2"}`,
		claims: organizerClaims,
		params: gin.Params{{Key: "id", Value: "m-1"}},
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NO_OVERLAP", errorCode(t, w))
}

func TestMeetingHandlerCancelClosed(t *testing.T) {
	svc := &meetingServiceMock{cancelErr: appErrors.ErrMeetingClosed}
	w := perform(t, NewMeetingHandler(svc).Cancel, call{
		method: http.MethodPost,
		target: "/meetings/m-1/cancel",
		claims: organizerClaims,
		params: gin.Params{{Key: "id", Value: "m-1"}},
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "m-1", svc.cancelled)
}
