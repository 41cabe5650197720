package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/huddle-api/internal/dto"
	"github.com/noah-isme/huddle-api/internal/models"
	appErrors "github.com/noah-isme/huddle-api/pkg/errors"
)

func locationFixture() (*meetingWorld, *LocationService) {
	w := newMeetingWorld()
	w.seed(models.Meeting{ID: "m-1", OrganizerID: organizer.ID, ShareSlug: "lunch"})
	return w, NewLocationService(w.meetingRepo(), w.locationRepo(), NewValidator(), nil)
}

func TestLocationSuggestAndList(t *testing.T) {
	_, svc := locationFixture()
	ctx := context.Background()

	cafe, err := svc.Suggest(ctx, "lunch", dto.SuggestLocationRequest{Name: " Blue Door ", Address: strPtr("1 Main St"), SuggestedBy: "Sam"})
	require.NoError(t, err)
	assert.Equal(t, "Blue Door", cafe.Name)
	assert.Equal(t, "m-1", cafe.MeetingID)

	_, err = svc.Suggest(ctx, "lunch", dto.SuggestLocationRequest{Name: "blue door", SuggestedBy: "Kai"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.Suggest(ctx, "lunch", dto.SuggestLocationRequest{Name: "Park", SuggestedBy: "Kai"})
	require.NoError(t, err)

	list, err := svc.List(ctx, "lunch")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.Suggest(ctx, "lunch", dto.SuggestLocationRequest{Name: "Park"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestLocationVoteIsIdempotent(t *testing.T) {
	_, svc := locationFixture()
	ctx := context.Background()
	cafe, err := svc.Suggest(ctx, "lunch", dto.SuggestLocationRequest{Name: "Cafe", SuggestedBy: "Sam"})
	require.NoError(t, err)

	first, err := svc.Vote(ctx, "lunch", cafe.ID, dto.VoteRequest{Voter: "Kai"})
	require.NoError(t, err)
	assert.True(t, first.Counted)
	assert.Equal(t, 1, first.Votes)

	again, err := svc.Vote(ctx, "lunch", cafe.ID, dto.VoteRequest{Voter: " kai "})
	require.NoError(t, err)
	assert.False(t, again.Counted)
	assert.Equal(t, 1, again.Votes)

	other, err := svc.Vote(ctx, "lunch", cafe.ID, dto.VoteRequest{Voter: "Lee"})
	require.NoError(t, err)
	assert.Equal(t, 2, other.Votes)

	_, err = svc.Vote(ctx, "lunch", "l-404", dto.VoteRequest{Voter: "Lee"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestLocationPick(t *testing.T) {
	w, svc := locationFixture()
	ctx := context.Background()
	cafe, err := svc.Suggest(ctx, "lunch", dto.SuggestLocationRequest{Name: "Cafe", SuggestedBy: "Sam"})
	require.NoError(t, err)

	_, err = svc.Pick(ctx, "m-1", cafe.ID, Actor{ID: "intruder", Role: models.RoleOrganizer})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	picked, err := svc.Pick(ctx, "m-1", cafe.ID, organizer)
	require.NoError(t, err)
	assert.Equal(t, cafe.ID, picked.ID)
	assert.Equal(t, models.MeetingStatusLocating, w.meetings["m-1"].Status)
	assert.Equal(t, cafe.ID, *w.meetings["m-1"].LocationID)

	w.meetings["m-1"].Status = models.MeetingStatusConfirmed
	_, err = svc.Pick(ctx, "m-1", cafe.ID, organizer)
	assert.True(t, errors.Is(err, appErrors.ErrMeetingClosed))
	_, err = svc.Vote(ctx, "lunch", cafe.ID, dto.VoteRequest{Voter: "Zed"})
	assert.True(t, errors.Is(err, appErrors.ErrMeetingClosed))
}
