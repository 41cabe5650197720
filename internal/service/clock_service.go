package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/huddle-api/internal/dto"
	"github.com/noah-isme/huddle-api/pkg/clock"
)

// ClockService exposes the time engine to stateless HTTP callers.
type ClockService struct {
	metrics   *MetricsService
	validator *validator.Validate
}

// NewClockService constructs the service.
func NewClockService(metrics *MetricsService, validate *validator.Validate) *ClockService {
	return &ClockService{metrics: metrics, validator: ensureValidator(validate)}
}

// Parse reads a display string.
func (s *ClockService) Parse(value string) (*dto.ParseTimeResponse, error) {
	t, err := clock.Parse(value)
	if err != nil {
		return nil, clockError(err, "value")
	}
	return &dto.ParseTimeResponse{Display: t.String(), Minutes: t.Minutes(), Unset: t.IsUnset()}, nil
}

// Step moves a time one quantum under the given bounds.
func (s *ClockService) Step(req dto.ClockStepRequest) (*dto.StepResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid step payload")
	}
	resp, err := s.step(req)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordClockStep(resp.Moved)
	return resp, nil
}

// step parses every field itself so it never relies on the validator having
// run first.
func (s *ClockService) step(req dto.ClockStepRequest) (*dto.StepResponse, error) {
	value, err := clock.Parse(req.Value)
	if err != nil {
		return nil, clockError(err, "value")
	}
	var bounds clock.Bounds
	for _, f := range []struct {
		name string
		raw  string
		dst  *clock.Time
	}{
		{"min", req.Min, &bounds.Min},
		{"max", req.Max, &bounds.Max},
		{"after", req.After, &bounds.After},
		{"before", req.Before, &bounds.Before},
	} {
		t, err := clock.Parse(f.raw)
		if err != nil {
			return nil, clockError(err, f.name)
		}
		*f.dst = t
	}
	return stepWithin(value, direction(req.Direction), bounds), nil
}

// Overlap intersects an ad-hoc base range with responses. Malformed
// responses are skipped and counted.
func (s *ClockService) Overlap(req dto.ClockOverlapRequest) (*dto.ClockOverlapResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid overlap payload")
	}
	base, err := clock.NewRange(req.Base.Start, req.Base.End)
	if err != nil {
		return nil, clockError(err, "base")
	}
	ranges := make([]clock.Range, 0, len(req.Responses))
	skipped := 0
	for _, in := range req.Responses {
		r, err := clock.NewRange(in.Start, in.End)
		if err != nil {
			skipped++
			continue
		}
		ranges = append(ranges, r)
	}

	out := &dto.ClockOverlapResponse{Skipped: skipped}
	overlap, ok := clock.Intersect(base, ranges...)
	s.metrics.RecordOverlap(ok)
	if ok {
		out.Overlap = true
		out.Start = overlap.Start.String()
		out.End = overlap.End.String()
		out.DurationMinutes = overlap.Duration()
	}
	return out, nil
}
