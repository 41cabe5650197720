package models

// OverlapResult is the shared free time of one window. It is always derived
// from the window and its responses and never stored.
type OverlapResult struct {
	WindowID        string   `json:"window_id"`
	Date            string   `json:"date"`
	OverlapStart    string   `json:"overlap_start"`
	OverlapEnd      string   `json:"overlap_end"`
	DurationMinutes int      `json:"duration_minutes"`
	Responders      []string `json:"responders"`
}
