package localstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/huddle-api/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "huddle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snapshot := models.MeetingSnapshot{
		Meeting: models.Meeting{ID: "m-1", Title: "Planning", Status: models.MeetingStatusProposing},
		Windows: []models.TimeWindow{{ID: "w-1", MeetingID: "m-1", DateLabel: "2025-03-04", StartTime: "3:00 pm", EndTime: "5:00 pm"}},
		Responses: []models.Response{
			{ID: "r-1", WindowID: "w-1", ResponderName: "Ben", StartTime: "3:30 pm", EndTime: "5:00 pm"},
		},
	}
	require.NoError(t, store.Save(ctx, "m-1", snapshot))

	loaded, err := store.Load(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, "Planning", loaded.Meeting.Title)
	require.Len(t, loaded.Windows, 1)
	assert.Equal(t, "3:00 pm", loaded.Windows[0].StartTime)
	assert.Len(t, loaded.ResponsesFor("w-1"), 1)
	assert.False(t, loaded.SavedAt.IsZero())
}

func TestSaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := models.MeetingSnapshot{Meeting: models.Meeting{ID: "m-1", Title: "Old"}, SavedAt: time.Now().Add(-time.Hour)}
	second := models.MeetingSnapshot{Meeting: models.Meeting{ID: "m-1", Title: "New"}}
	require.NoError(t, store.Save(ctx, "m-1", first))
	require.NoError(t, store.Save(ctx, "m-1", second))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "New", entries[0].Title)
}

func TestLoadMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "m-1", models.MeetingSnapshot{Meeting: models.Meeting{Title: "x"}}))
	require.NoError(t, store.Delete(ctx, "m-1"))
	require.NoError(t, store.Delete(ctx, "m-1"))

	_, err := store.Load(ctx, "m-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
