package dto

// ParseTimeResponse describes a parsed display string.
type ParseTimeResponse struct {
	Display string `json:"display"`
	Minutes int    `json:"minutes"`
	Unset   bool   `json:"unset"`
}

// ClockStepRequest steps a time under explicit bounds.
type ClockStepRequest struct {
	Value     string `json:"value" validate:"required,clocktime"`
	Direction string `json:"direction" validate:"required,oneof=forward backward"`
	Min       string `json:"min" validate:"omitempty,clocktime"`
	Max       string `json:"max" validate:"omitempty,clocktime"`
	After     string `json:"after" validate:"omitempty,clocktime"`
	Before    string `json:"before" validate:"omitempty,clocktime"`
}

// RangeInput is a start/end pair of display strings.
type RangeInput struct {
	Start string `json:"start" validate:"required,clocktime"`
	End   string `json:"end" validate:"required,clocktime"`
}

// ClockOverlapRequest intersects a base range with any number of responses.
type ClockOverlapRequest struct {
	Base      RangeInput   `json:"base"`
	Responses []RangeInput `json:"responses" validate:"omitempty,max=100,dive"`
}

// ClockOverlapResponse is the shared range, if any.
type ClockOverlapResponse struct {
	Overlap         bool   `json:"overlap"`
	Start           string `json:"start,omitempty"`
	End             string `json:"end,omitempty"`
	DurationMinutes int    `json:"durationMinutes"`
	Skipped         int    `json:"skipped"`
}
