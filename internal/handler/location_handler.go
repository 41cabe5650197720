package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/huddle-api/internal/dto"
	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/internal/service"
	"github.com/noah-isme/huddle-api/pkg/response"
)

type locationService interface {
	Suggest(ctx context.Context, slug string, req dto.SuggestLocationRequest) (*models.LocationSuggestion, error)
	Vote(ctx context.Context, slug, locationID string, req dto.VoteRequest) (*dto.VoteResponse, error)
	List(ctx context.Context, slug string) ([]models.LocationSuggestion, error)
	Pick(ctx context.Context, meetingID, locationID string, actor service.Actor) (*models.LocationSuggestion, error)
}

// LocationHandler serves venue suggestions and votes.
type LocationHandler struct {
	service locationService
}

// NewLocationHandler builds a new handler.
func NewLocationHandler(svc locationService) *LocationHandler {
	return &LocationHandler{service: svc}
}

// Suggest godoc
// @Summary Suggest a venue
// @Tags Locations
// @Accept json
// @Produce json
// @Param slug path string true "Share slug"
// @Param payload body dto.SuggestLocationRequest true "Suggestion"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /m/{slug}/locations [post]
func (h *LocationHandler) Suggest(c *gin.Context) {
	var req dto.SuggestLocationRequest
	if !bindJSON(c, &req, "invalid location payload") {
		return
	}
	suggestion, err := h.service.Suggest(c.Request.Context(), c.Param("slug"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, suggestion)
}

// List godoc
// @Summary Venues ordered by votes
// @Tags Locations
// @Produce json
// @Param slug path string true "Share slug"
// @Success 200 {object} response.Envelope
// @Router /m/{slug}/locations [get]
func (h *LocationHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Vote godoc
// @Summary Back a venue
// @Tags Locations
// @Accept json
// @Produce json
// @Param slug path string true "Share slug"
// @Param locationId path string true "Suggestion ID"
// @Param payload body dto.VoteRequest true "Voter"
// @Success 200 {object} response.Envelope
// @Router /m/{slug}/locations/{locationId}/votes [post]
func (h *LocationHandler) Vote(c *gin.Context) {
	var req dto.VoteRequest
	if !bindJSON(c, &req, "invalid vote payload") {
		return
	}
	resp, err := h.service.Vote(c.Request.Context(), c.Param("slug"), c.Param("locationId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Pick godoc
// @Summary Settle the venue
// @Tags Meetings
// @Produce json
// @Param id path string true "Meeting ID"
// @Param locationId path string true "Suggestion ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /meetings/{id}/locations/{locationId}/pick [post]
func (h *LocationHandler) Pick(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	picked, err := h.service.Pick(c.Request.Context(), c.Param("id"), c.Param("locationId"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, picked, nil)
}
