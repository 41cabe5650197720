package dto

// RespondRequest captures an invitee's availability for one window.
type RespondRequest struct {
	ResponderName string `json:"responderName" validate:"required,max=80"`
	StartTime     string `json:"startTime" validate:"required,clocktime"`
	EndTime       string `json:"endTime" validate:"required,clocktime"`
}

// BoundsResponse is the range a responder may pick inside a window.
type BoundsResponse struct {
	WindowID  string `json:"windowId"`
	Responder string `json:"responder,omitempty"`
	Min       string `json:"min"`
	Max       string `json:"max"`
}

// StepRequest moves the start or end of a responder's draft by one quantum.
// Paired is the opposite end of the draft and may be empty.
type StepRequest struct {
	Responder string `json:"responder" validate:"max=80"`
	Field     string `json:"field" validate:"required,oneof=start end"`
	Current   string `json:"current" validate:"required,clocktime"`
	Paired    string `json:"paired" validate:"omitempty,clocktime"`
	Direction string `json:"direction" validate:"required,oneof=forward backward"`
}

// StepResponse reports where the time landed and which controls stay enabled.
type StepResponse struct {
	Time         string `json:"time"`
	Minutes      int    `json:"minutes"`
	Moved        bool   `json:"moved"`
	CanIncrement bool   `json:"canIncrement"`
	CanDecrement bool   `json:"canDecrement"`
}
