package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/huddle-api/internal/dto"
	"github.com/noah-isme/huddle-api/internal/middleware"
	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/pkg/response"
)

type shareLinkService interface {
	GetBySlug(ctx context.Context, slug string) (*models.MeetingDetail, error)
}

type availabilityService interface {
	Respond(ctx context.Context, slug, windowID string, req dto.RespondRequest) (*models.Response, error)
	Withdraw(ctx context.Context, slug, windowID, responder string) error
	Overlaps(ctx context.Context, slug string) ([]models.OverlapResult, bool, error)
	Bounds(ctx context.Context, slug, windowID, responder string) (*dto.BoundsResponse, error)
	Step(ctx context.Context, slug, windowID string, req dto.StepRequest) (*dto.StepResponse, error)
}

// AvailabilityHandler serves the public share-link pages invitees use.
type AvailabilityHandler struct {
	meetings     shareLinkService
	availability availabilityService
}

// NewAvailabilityHandler builds a new handler.
func NewAvailabilityHandler(meetings shareLinkService, availability availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{meetings: meetings, availability: availability}
}

// Meeting godoc
// @Summary Meeting behind a share link
// @Tags Share links
// @Produce json
// @Param slug path string true "Share slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /m/{slug} [get]
func (h *AvailabilityHandler) Meeting(c *gin.Context) {
	detail, err := h.meetings.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Respond godoc
// @Summary Record availability for a window
// @Tags Share links
// @Accept json
// @Produce json
// @Param slug path string true "Share slug"
// @Param windowId path string true "Window ID"
// @Param payload body dto.RespondRequest true "Availability"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /m/{slug}/windows/{windowId}/responses [post]
func (h *AvailabilityHandler) Respond(c *gin.Context) {
	var req dto.RespondRequest
	if !bindJSON(c, &req, "invalid response payload") {
		return
	}
	resp, err := h.availability.Respond(c.Request.Context(), c.Param("slug"), c.Param("windowId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Withdraw godoc
// @Summary Remove a responder's availability
// @Tags Share links
// @Param slug path string true "Share slug"
// @Param windowId path string true "Window ID"
// @Param responder path string true "Responder name"
// @Success 204 {object} response.Envelope
// @Router /m/{slug}/windows/{windowId}/responses/{responder} [delete]
func (h *AvailabilityHandler) Withdraw(c *gin.Context) {
	if err := h.availability.Withdraw(c.Request.Context(), c.Param("slug"), c.Param("windowId"), c.Param("responder")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Overlaps godoc
// @Summary Shared free time per window
// @Description Windows without a shared range are omitted.
// @Tags Share links
// @Produce json
// @Param slug path string true "Share slug"
// @Success 200 {object} response.Envelope
// @Router /m/{slug}/overlaps [get]
func (h *AvailabilityHandler) Overlaps(c *gin.Context) {
	results, hit, err := h.availability.Overlaps(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, results, nil, middleware.ExtractMeta(c))
}

// Bounds godoc
// @Summary Range a responder may pick
// @Tags Share links
// @Produce json
// @Param slug path string true "Share slug"
// @Param windowId path string true "Window ID"
// @Param responder query string false "Responder name"
// @Success 200 {object} response.Envelope
// @Router /m/{slug}/windows/{windowId}/bounds [get]
func (h *AvailabilityHandler) Bounds(c *gin.Context) {
	bounds, err := h.availability.Bounds(c.Request.Context(), c.Param("slug"), c.Param("windowId"), c.Query("responder"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bounds, nil)
}

// Step godoc
// @Summary Move a draft time by one quantum
// @Description A blocked step answers 200 with moved=false.
// @Tags Share links
// @Accept json
// @Produce json
// @Param slug path string true "Share slug"
// @Param windowId path string true "Window ID"
// @Param payload body dto.StepRequest true "Step"
// @Success 200 {object} response.Envelope
// @Router /m/{slug}/windows/{windowId}/step [post]
func (h *AvailabilityHandler) Step(c *gin.Context) {
	var req dto.StepRequest
	if !bindJSON(c, &req, "invalid step payload") {
		return
	}
	resp, err := h.availability.Step(c.Request.Context(), c.Param("slug"), c.Param("windowId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
