package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/huddle-api/internal/dto"
	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/internal/service"
	appErrors "github.com/noah-isme/huddle-api/pkg/errors"
	"github.com/noah-isme/huddle-api/pkg/response"
)

type meetingService interface {
	Create(ctx context.Context, req dto.CreateMeetingRequest, actor service.Actor) (*models.MeetingDetail, error)
	Get(ctx context.Context, id string, actor service.Actor) (*models.MeetingDetail, error)
	List(ctx context.Context, query dto.ListMeetingsQuery, actor service.Actor) ([]models.Meeting, *models.Pagination, error)
	AddWindow(ctx context.Context, id string, input dto.WindowInput, actor service.Actor) (*models.TimeWindow, error)
	DeleteWindow(ctx context.Context, id, windowID string, actor service.Actor) error
	Confirm(ctx context.Context, id string, req dto.ConfirmMeetingRequest, actor service.Actor) (*models.MeetingDetail, error)
	Cancel(ctx context.Context, id string, actor service.Actor) error
}

// MeetingHandler exposes the organizer endpoints.
type MeetingHandler struct {
	service meetingService
}

// NewMeetingHandler builds a new handler.
func NewMeetingHandler(svc meetingService) *MeetingHandler {
	return &MeetingHandler{service: svc}
}

// Create godoc
// @Summary Propose a meeting
// @Tags Meetings
// @Accept json
// @Produce json
// @Param payload body dto.CreateMeetingRequest true "Meeting payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /meetings [post]
func (h *MeetingHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateMeetingRequest
	if !bindJSON(c, &req, "invalid meeting payload") {
		return
	}
	detail, err := h.service.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// List godoc
// @Summary List meetings
// @Tags Meetings
// @Produce json
// @Param status query string false "PROPOSING, LOCATING, CONFIRMED or CANCELLED"
// @Param q query string false "Title search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /meetings [get]
func (h *MeetingHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var query dto.ListMeetingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Meeting detail with overlaps
// @Tags Meetings
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /meetings/{id} [get]
func (h *MeetingHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// AddWindow godoc
// @Summary Propose another window
// @Tags Meetings
// @Accept json
// @Produce json
// @Param id path string true "Meeting ID"
// @Param payload body dto.WindowInput true "Window"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /meetings/{id}/windows [post]
func (h *MeetingHandler) AddWindow(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var input dto.WindowInput
	if !bindJSON(c, &input, "invalid window payload") {
		return
	}
	window, err := h.service.AddWindow(c.Request.Context(), c.Param("id"), input, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// DeleteWindow godoc
// @Summary Withdraw a proposed window
// @Tags Meetings
// @Param id path string true "Meeting ID"
// @Param windowId path string true "Window ID"
// @Success 204 {object} response.Envelope
// @Router /meetings/{id}/windows/{windowId} [delete]
func (h *MeetingHandler) DeleteWindow(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.DeleteWindow(c.Request.Context(), c.Param("id"), c.Param("windowId"), actor); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Confirm godoc
// @Summary Confirm the meeting on a window's overlap
// @Tags Meetings
// @Accept json
// @Produce json
// @Param id path string true "Meeting ID"
// @Param payload body dto.ConfirmMeetingRequest true "Chosen window"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /meetings/{id}/confirm [post]
func (h *MeetingHandler) Confirm(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ConfirmMeetingRequest
	if !bindJSON(c, &req, "invalid confirm payload") {
		return
	}
	detail, err := h.service.Confirm(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Cancel godoc
// @Summary Cancel an open meeting
// @Tags Meetings
// @Param id path string true "Meeting ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /meetings/{id}/cancel [post]
func (h *MeetingHandler) Cancel(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Cancel(c.Request.Context(), c.Param("id"), actor); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
