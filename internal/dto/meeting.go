package dto

// WindowInput is one proposed slot in a create or add-window request.
type WindowInput struct {
	DateLabel string `json:"dateLabel" validate:"required,max=64"`
	StartTime string `json:"startTime" validate:"required,clocktime"`
	EndTime   string `json:"endTime" validate:"required,clocktime"`
}

// InviteeInput names an expected responder and, optionally, how far they
// may stretch their availability.
type InviteeInput struct {
	Name          string  `json:"name" validate:"required,max=80"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	EarliestStart *string `json:"earliestStart,omitempty" validate:"omitempty,clocktime"`
	LatestEnd     *string `json:"latestEnd,omitempty" validate:"omitempty,clocktime"`
}

// CreateMeetingRequest captures POST /meetings payload.
type CreateMeetingRequest struct {
	Title           string         `json:"title" validate:"required,max=200"`
	Description     *string        `json:"description,omitempty" validate:"omitempty,max=2000"`
	Timezone        string         `json:"timezone" validate:"omitempty,timezone"`
	DurationMinutes int            `json:"durationMinutes" validate:"omitempty,min=15,max=1440"`
	Windows         []WindowInput  `json:"windows" validate:"required,min=1,max=20,dive"`
	Invitees        []InviteeInput `json:"invitees" validate:"omitempty,max=50,dive"`
}

// ListMeetingsQuery captures GET /meetings query parameters.
type ListMeetingsQuery struct {
	Status   string `form:"status"`
	Search   string `form:"q"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ConfirmMeetingRequest selects the window whose overlap becomes the final slot.
type ConfirmMeetingRequest struct {
	WindowID string `json:"windowId" validate:"required"`
}
