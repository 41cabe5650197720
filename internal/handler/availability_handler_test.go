package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/huddle-api/internal/dto"
	"github.com/noah-isme/huddle-api/internal/middleware"
	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/internal/service"
	appErrors "github.com/noah-isme/huddle-api/pkg/errors"
)

type shareLinkMock struct{}

func (shareLinkMock) GetBySlug(ctx context.Context, slug string) (*models.MeetingDetail, error) {
	if slug != "team-lunch" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting not found")
	}
	return &models.MeetingDetail{Meeting: models.Meeting{ID: "m-1", ShareSlug: slug}}, nil
}

type availabilityMock struct {
	respondReq dto.RespondRequest
	respondErr error
	withdrawn  []string
	hit        bool
	responder  string
	stepReq    dto.StepRequest
}

func (m *availabilityMock) Respond(ctx context.Context, slug, windowID string, req dto.RespondRequest) (*models.Response, error) {
	m.respondReq = req
	if m.respondErr != nil {
		return nil, m.respondErr
	}
	return &models.Response{WindowID: windowID, ResponderName: req.ResponderName, StartTime: req.StartTime, EndTime: req.EndTime}, nil
}

func (m *availabilityMock) Withdraw(ctx context.Context, slug, windowID, responder string) error {
	m.withdrawn = []string{slug, windowID, responder}
	return nil
}

func (m *availabilityMock) Overlaps(ctx context.Context, slug string) ([]models.OverlapResult, bool, error) {
	return []models.OverlapResult{{WindowID: "w-1", OverlapStart: "4:00 pm", OverlapEnd: "4:45 pm", DurationMinutes: 45}}, m.hit, nil
}

func (m *availabilityMock) Bounds(ctx context.Context, slug, windowID, responder string) (*dto.BoundsResponse, error) {
	m.responder = responder
	return &dto.BoundsResponse{WindowID: windowID, Responder: responder, Min: "10:00 am", Max: "5:00 pm"}, nil
}

func (m *availabilityMock) Step(ctx context.Context, slug, windowID string, req dto.StepRequest) (*dto.StepResponse, error) {
	m.stepReq = req
	return &dto.StepResponse{Time: req.Current, Moved: false, CanDecrement: true}, nil
}

func slugParams(extra ...gin.Param) gin.Params {
	return append(gin.Params{{Key: "slug", Value: "team-lunch"}}, extra...)
}

func TestAvailabilityHandlerMeeting(t *testing.T) {
	h := NewAvailabilityHandler(shareLinkMock{}, &availabilityMock{})

	w := perform(t, h.Meeting, call{method: http.MethodGet, target: "/m/team-lunch", params: slugParams()})
	require.Equal(t, http.StatusOK, w.Code)

	w = perform(t, h.Meeting, call{method: http.MethodGet, target: "/m/nope", params: gin.Params{{Key: "slug", Value: "nope"}}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAvailabilityHandlerRespond(t *testing.T) {
	svc := &availabilityMock{}
	w := perform(t, NewAvailabilityHandler(shareLinkMock{}, svc).Respond, call{
		method: http.MethodPost,
		target: "/m/team-lunch/windows/w-1/responses",
		body:   `{"responderName":"Sam","startTime":"3:30 pm","endTime":"5:00 pm"}`,
		params: slugParams(gin.Param{Key: "windowId", Value: "w-1"}),
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.RespondRequest{ResponderName: "Sam", StartTime: "3:30 pm", EndTime: "5:00 pm"}, svc.respondReq)
}

func TestAvailabilityHandlerRespondErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "bad time", err: appErrors.ErrInvalidTimeFormat, status: http.StatusBadRequest, code: "INVALID_TIME_FORMAT"},
		{name: "outside window", err: appErrors.ErrOutOfRange, status: http.StatusUnprocessableEntity, code: "OUT_OF_RANGE"},
		{name: "closed", err: appErrors.ErrMeetingClosed, status: http.StatusConflict, code: "MEETING_CLOSED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &availabilityMock{respondErr: tt.err}
			w := perform(t, NewAvailabilityHandler(shareLinkMock{}, svc).Respond, call{
				method: http.MethodPost,
				target: "/m/team-lunch/windows/w-1/responses",
				body:   `{"responderName":"Sam","startTime":"3:30 pm","endTime":"5:00 pm"}`,
				params: slugParams(gin.Param{Key: "windowId", Value: "w-1"}),
			})
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestAvailabilityHandlerWithdraw(t *testing.T) {
	svc := &availabilityMock{}
	w := perform(t, NewAvailabilityHandler(shareLinkMock{}, svc).Withdraw, call{
		method: http.MethodDelete,
		target: "/m/team-lunch/windows/w-1/responses/Sam",
		params: slugParams(gin.Param{Key: "windowId", Value: "w-1"}, gin.Param{Key: "responder", Value: "Sam"}),
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"team-lunch", "w-1", "Sam"}, svc.withdrawn)
}

func TestAvailabilityHandlerOverlapsReportsCache(t *testing.T) {
	for _, hit := range []bool{false, true} {
		gin.SetMode(gin.TestMode)
		h := NewAvailabilityHandler(shareLinkMock{}, &availabilityMock{hit: hit})
		handle := func(c *gin.Context) {
			middleware.WithResponseMeta()(c)
			h.Overlaps(c)
		}

		w := perform(t, handle, call{method: http.MethodGet, target: "/m/team-lunch/overlaps", params: slugParams()})
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeEnvelope(t, w)
		meta, ok := body["meta"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, hit, meta["cache_hit"])
		data := body["data"].([]interface{})
		require.Len(t, data, 1)
		assert.Equal(t, "4:00 pm", data[0].(map[string]interface{})["overlap_start"])
	}
}

func TestAvailabilityHandlerBoundsAndStep(t *testing.T) {
	svc := &availabilityMock{}
	h := NewAvailabilityHandler(shareLinkMock{}, svc)

	w := perform(t, h.Bounds, call{
		method: http.MethodGet,
		target: "/m/team-lunch/windows/w-1/bounds?responder=Sam",
		params: slugParams(gin.Param{Key: "windowId", Value: "w-1"}),
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sam", svc.responder)

	w = perform(t, h.Step, call{
		method: http.MethodPost,
		target: "/m/team-lunch/windows/w-1/step",
		body:   `{"responder":"Sam","field":"end","current":"5:00 pm","direction":"forward"}`,
		params: slugParams(gin.Param{Key: "windowId", Value: "w-1"}),
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "end", svc.stepReq.Field)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, false, data["moved"])
}

type locationServiceMock struct {
	voted   dto.VoteRequest
	pickErr error
	actor   service.Actor
}

func (m *locationServiceMock) Suggest(ctx context.Context, slug string, req dto.SuggestLocationRequest) (*models.LocationSuggestion, error) {
	return &models.LocationSuggestion{ID: "l-1", Name: req.Name, SuggestedBy: req.SuggestedBy}, nil
}

func (m *locationServiceMock) Vote(ctx context.Context, slug, locationID string, req dto.VoteRequest) (*dto.VoteResponse, error) {
	m.voted = req
	return &dto.VoteResponse{SuggestionID: locationID, Votes: 2, Counted: true}, nil
}

func (m *locationServiceMock) List(ctx context.Context, slug string) ([]models.LocationSuggestion, error) {
	return []models.LocationSuggestion{{ID: "l-1", Votes: 2}, {ID: "l-2", Votes: 1}}, nil
}

func (m *locationServiceMock) Pick(ctx context.Context, meetingID, locationID string, actor service.Actor) (*models.LocationSuggestion, error) {
	m.actor = actor
	if m.pickErr != nil {
		return nil, m.pickErr
	}
	return &models.LocationSuggestion{ID: locationID}, nil
}

func TestLocationHandlerFlow(t *testing.T) {
	svc := &locationServiceMock{}
	h := NewLocationHandler(svc)

	w := perform(t, h.Suggest, call{
		method: http.MethodPost,
		target: "/m/team-lunch/locations",
		body:   `{"name":"Blue Door","suggestedBy":"Sam"}`,
		params: slugParams(),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = perform(t, h.Vote, call{
		method: http.MethodPost,
		target: "/m/team-lunch/locations/l-1/votes",
		body:   `{"voter":"Kai"}`,
		params: slugParams(gin.Param{Key: "locationId", Value: "l-1"}),
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Kai", svc.voted.Voter)

	w = perform(t, h.List, call{method: http.MethodGet, target: "/m/team-lunch/locations", params: slugParams()})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeEnvelope(t, w)["data"], 2)
}

func TestLocationHandlerPick(t *testing.T) {
	svc := &locationServiceMock{}
	h := NewLocationHandler(svc)
	params := gin.Params{{Key: "id", Value: "m-1"}, {Key: "locationId", Value: "l-1"}}

	w := perform(t, h.Pick, call{method: http.MethodPost, target: "/meetings/m-1/locations/l-1/pick", params: params})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(t, h.Pick, call{method: http.MethodPost, target: "/meetings/m-1/locations/l-1/pick", params: params, claims: organizerClaims})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", svc.actor.ID)

	svc.pickErr = appErrors.ErrForbidden
	w = perform(t, h.Pick, call{method: http.MethodPost, target: "/meetings/m-1/locations/l-1/pick", params: params, claims: organizerClaims})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type calendarServiceMock struct {
	err error
}

func (m calendarServiceMock) ICS(ctx context.Context, slug string) (*service.CalendarFile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &service.CalendarFile{Filename: slug + ".ics", Body: []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")}, nil
}

func TestCalendarHandlerDownload(t *testing.T) {
	w := perform(t, NewCalendarHandler(calendarServiceMock{}).Download, call{
		method: http.MethodGet,
		target: "/m/team-lunch/calendar.ics",
		params: slugParams(),
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="team-lunch.ics"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "BEGIN:VCALENDAR")
}

func TestCalendarHandlerNotConfirmed(t *testing.T) {
	w := perform(t, NewCalendarHandler(calendarServiceMock{err: appErrors.ErrPreconditionFailed}).Download, call{
		method: http.MethodGet,
		target: "/m/team-lunch/calendar.ics",
		params: slugParams(),
	})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}
