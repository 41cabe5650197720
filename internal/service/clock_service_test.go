package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/huddle-api/internal/dto"
	appErrors "github.com/noah-isme/huddle-api/pkg/errors"
)

func TestClockServiceParse(t *testing.T) {
	svc := NewClockService(nil, nil)

	got, err := svc.Parse("02:30 PM")
	require.NoError(t, err)
	assert.Equal(t, &dto.ParseTimeResponse{Display: "2:30 pm", Minutes: 870}, got)

	got, err = svc.Parse("--")
	require.NoError(t, err)
	assert.True(t, got.Unset)
	assert.Equal(t, "--", got.Display)

	_, err = svc.Parse("14:30")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTimeFormat.Code, appErrors.FromError(err).Code)
}

func TestClockServiceStep(t *testing.T) {
	svc := NewClockService(NewMetricsService(), NewValidator())

	got, err := svc.Step(dto.ClockStepRequest{Value: "11:45 pm", Direction: "forward"})
	require.NoError(t, err)
	assert.Equal(t, "12:00 am", got.Time)
	assert.True(t, got.Moved)

	got, err = svc.Step(dto.ClockStepRequest{Value: "11:45 pm", Direction: "forward", Max: "11:45 pm"})
	require.NoError(t, err)
	assert.Equal(t, "11:45 pm", got.Time)
	assert.False(t, got.Moved)
	assert.False(t, got.CanIncrement)

	got, err = svc.Step(dto.ClockStepRequest{Value: "10:15 am", Direction: "backward", After: "10:00 am"})
	require.NoError(t, err)
	assert.False(t, got.Moved)

	_, err = svc.Step(dto.ClockStepRequest{Value: "10:15 am", Direction: "sideways"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClockServiceStepKeepsPairedEndAfterStart(t *testing.T) {
	svc := NewClockService(nil, NewValidator())

	got, err := svc.Step(dto.ClockStepRequest{Value: "11:45 pm", Direction: "forward", After: "10:00 pm"})
	require.NoError(t, err)
	assert.False(t, got.Moved)
	assert.Equal(t, "11:45 pm", got.Time)

	got, err = svc.Step(dto.ClockStepRequest{Value: "12:00 am", Direction: "backward", Max: "5:00 pm"})
	require.NoError(t, err)
	assert.False(t, got.Moved)
}

func TestClockServiceStepParsesWithoutValidator(t *testing.T) {
	svc := NewClockService(nil, nil)

	_, err := svc.step(dto.ClockStepRequest{Value: "noonish", Direction: "forward"})
	assert.Equal(t, appErrors.ErrInvalidTimeFormat.Code, appErrors.FromError(err).Code)

	_, err = svc.step(dto.ClockStepRequest{Value: "9:00 am", Direction: "forward", Before: "25:00"})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "before")

	got, err := svc.step(dto.ClockStepRequest{Value: "9:00 am", Direction: "forward", Max: "9:15 am"})
	require.NoError(t, err)
	assert.Equal(t, "9:15 am", got.Time)
	assert.True(t, got.Moved)
}

func TestClockServiceOverlap(t *testing.T) {
	svc := NewClockService(nil, nil)

	got, err := svc.Overlap(dto.ClockOverlapRequest{
		Base: dto.RangeInput{Start: "3:00 pm", End: "5:00 pm"},
		Responses: []dto.RangeInput{
			{Start: "3:30 pm", End: "5:00 pm"},
			{Start: "4:00 pm", End: "4:45 pm"},
			{Start: "4:30 pm", End: "4:00 pm"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, &dto.ClockOverlapResponse{Overlap: true, Start: "4:00 pm", End: "4:45 pm", DurationMinutes: 45, Skipped: 1}, got)

	got, err = svc.Overlap(dto.ClockOverlapRequest{
		Base:      dto.RangeInput{Start: "9:00 am", End: "10:00 am"},
		Responses: []dto.RangeInput{{Start: "10:00 am", End: "11:00 am"}},
	})
	require.NoError(t, err)
	assert.False(t, got.Overlap)
	assert.Empty(t, got.Start)

	_, err = svc.Overlap(dto.ClockOverlapRequest{Base: dto.RangeInput{Start: "5:00 pm", End: "9:00 am"}})
	assert.Equal(t, appErrors.ErrInvalidWindow.Code, appErrors.FromError(err).Code)
}
