package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/huddle-api/internal/dto"
	"github.com/noah-isme/huddle-api/pkg/response"
)

type clockService interface {
	Parse(value string) (*dto.ParseTimeResponse, error)
	Step(req dto.ClockStepRequest) (*dto.StepResponse, error)
	Overlap(req dto.ClockOverlapRequest) (*dto.ClockOverlapResponse, error)
}

// ClockHandler exposes the stateless time arithmetic.
type ClockHandler struct {
	service clockService
}

// NewClockHandler builds a new handler.
func NewClockHandler(svc clockService) *ClockHandler {
	return &ClockHandler{service: svc}
}

// Parse godoc
// @Summary Parse a 12-hour display string
// @Tags Clock
// @Produce json
// @Param value query string true "e.g. 2:30 pm"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /clock/parse [get]
func (h *ClockHandler) Parse(c *gin.Context) {
	parsed, err := h.service.Parse(c.Query("value"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parsed, nil)
}

// Step godoc
// @Summary Step a time by one quantum
// @Tags Clock
// @Accept json
// @Produce json
// @Param payload body dto.ClockStepRequest true "Step"
// @Success 200 {object} response.Envelope
// @Router /clock/step [post]
func (h *ClockHandler) Step(c *gin.Context) {
	var req dto.ClockStepRequest
	if !bindJSON(c, &req, "invalid step payload") {
		return
	}
	resp, err := h.service.Step(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Overlap godoc
// @Summary Intersect a base range with responses
// @Tags Clock
// @Accept json
// @Produce json
// @Param payload body dto.ClockOverlapRequest true "Ranges"
// @Success 200 {object} response.Envelope
// @Router /clock/overlap [post]
func (h *ClockHandler) Overlap(c *gin.Context) {
	var req dto.ClockOverlapRequest
	if !bindJSON(c, &req, "invalid overlap payload") {
		return
	}
	resp, err := h.service.Overlap(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
