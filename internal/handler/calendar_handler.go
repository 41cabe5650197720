package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/huddle-api/internal/service"
	"github.com/noah-isme/huddle-api/pkg/response"
)

type calendarService interface {
	ICS(ctx context.Context, slug string) (*service.CalendarFile, error)
}

// CalendarHandler serves the confirmed slot as an iCalendar file.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler builds a new handler.
func NewCalendarHandler(svc calendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// Download godoc
// @Summary Add to calendar
// @Tags Share links
// @Produce text/calendar
// @Param slug path string true "Share slug"
// @Success 200 {file} file
// @Failure 412 {object} response.Envelope
// @Router /m/{slug}/calendar.ics [get]
func (h *CalendarHandler) Download(c *gin.Context) {
	file, err := h.service.ICS(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, "text/calendar; charset=utf-8", file.Body)
}
