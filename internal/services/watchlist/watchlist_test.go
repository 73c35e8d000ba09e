package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/lib/logger"
	"cinepwa/proj/internal/services/auth"
	"cinepwa/proj/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContent struct {
	mu      sync.Mutex
	details map[int]models.ContentDetails
	calls   atomic.Int32
}

func (f *fakeContent) GetDetails(_ context.Context, id int, mediaType models.MediaType) (*models.ContentDetails, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[id]
	if !ok {
		return nil, errors.New("lookup failed")
	}
	d.ID = id
	d.MediaType = mediaType
	return &d, nil
}

func newTestService(t *testing.T) (*WatchlistService, *memory.Models, *fakeContent, context.Context) {
	t.Helper()
	store := memory.New()
	content := &fakeContent{details: map[int]models.ContentDetails{
		603:  {ContentItem: models.ContentItem{Title: "The Matrix"}},
		1399: {ContentItem: models.ContentItem{Name: "Game of Thrones"}, NumberOfEpisodes: 4, NumberOfSeasons: 2},
	}}
	svc := New(logger.Discard(), Storage{
		Watchlist:   store.Watchlist,
		Watched:     store.Watched,
		Episodes:    store.Episodes,
		SeriesCache: store.SeriesCache,
	}, content, time.Hour)
	user, err := store.Users.Insert(context.Background(), "", true)
	require.NoError(t, err)
	ctx := auth.ContextWithPrincipal(context.Background(), &auth.Principal{User: *user})
	return svc, store, content, ctx
}

func TestListHydratesInOrder(t *testing.T) {
	svc, _, _, ctx := newTestService(t)
	require.NoError(t, svc.Add(ctx, models.ContentRef{ID: 1399, MediaType: models.MediaTV}))
	require.NoError(t, svc.Add(ctx, models.ContentRef{ID: 42, MediaType: models.MediaMovie}))
	require.NoError(t, svc.Add(ctx, models.ContentRef{ID: 603, MediaType: models.MediaMovie}))

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Game of Thrones", items[0].DisplayTitle())
	assert.Equal(t, models.ContentItem{ID: 42, MediaType: models.MediaMovie}, items[1])
	assert.Equal(t, "The Matrix", items[2].DisplayTitle())
}

func TestRemoveAndUnwatchMissing(t *testing.T) {
	svc, _, _, ctx := newTestService(t)
	assert.ErrorIs(t, svc.Remove(ctx, 1), ErrNotInWatchlist)
	assert.ErrorIs(t, svc.MarkUnwatched(ctx, 1), ErrNotWatched)
	assert.ErrorIs(t, svc.Add(context.Background(), models.ContentRef{ID: 1}), auth.ErrUnauthorized)
}

func TestSyncDedupsAndEnrichesWatched(t *testing.T) {
	svc, store, _, ctx := newTestService(t)
	require.NoError(t, svc.Add(ctx, models.ContentRef{ID: 603, MediaType: models.MediaMovie}))
	require.NoError(t, svc.MarkWatched(ctx, 603, models.MediaMovie))

	req := SyncRequest{
		Items:      []models.ContentRef{{ID: 603, MediaType: models.MediaMovie}, {ID: 1399, MediaType: models.MediaTV}},
		WatchedIDs: []int{603, 1399, 550},
	}
	result, err := svc.Sync(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Watchlist: 1, Watched: 2}, *result)

	again, err := svc.Sync(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{}, *again)

	userID, _ := auth.CallerID(ctx)
	rows, err := store.Watched.List(context.Background(), userID)
	require.NoError(t, err)
	types := map[int]models.MediaType{}
	for _, r := range rows {
		types[r.TMDBID] = r.MediaType
	}
	assert.Equal(t, models.MediaTV, types[1399])
	assert.Equal(t, models.MediaMovie, types[550])
}

func TestContentSnapshot(t *testing.T) {
	svc, _, _, ctx := newTestService(t)
	require.NoError(t, svc.Add(ctx, models.ContentRef{ID: 603, MediaType: models.MediaMovie}))
	require.NoError(t, svc.MarkWatched(ctx, 99, ""))

	content, err := svc.Content(ctx)
	require.NoError(t, err)
	require.Len(t, content.Watchlist, 1)
	assert.Equal(t, []int{99}, content.WatchedIDs)
}

func TestSeriesInfoUsesCache(t *testing.T) {
	svc, _, content, ctx := newTestService(t)
	info, err := svc.SeriesInfo(ctx, 1399)
	require.NoError(t, err)
	assert.Equal(t, 4, info.TotalEpisodes)
	_, err = svc.SeriesInfo(ctx, 1399)
	require.NoError(t, err)
	assert.EqualValues(t, 1, content.calls.Load())

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.SeriesInfo(ctx, 1399)
	require.NoError(t, err)
	assert.EqualValues(t, 2, content.calls.Load())

	_, err = svc.SeriesInfo(ctx, 7)
	assert.ErrorIs(t, err, ErrSeriesNotFound)
}

func TestSeriesInfoServesStaleOnFailure(t *testing.T) {
	svc, _, content, ctx := newTestService(t)
	_, err := svc.SeriesInfo(ctx, 1399)
	require.NoError(t, err)
	content.mu.Lock()
	delete(content.details, 1399)
	content.mu.Unlock()
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	info, err := svc.SeriesInfo(ctx, 1399)
	require.NoError(t, err)
	assert.Equal(t, 4, info.TotalEpisodes)
}

func TestEpisodeProgress(t *testing.T) {
	svc, _, _, ctx := newTestService(t)
	for ep := 1; ep <= 3; ep++ {
		require.NoError(t, svc.MarkEpisodeWatched(ctx, EpisodeRequest{
			TMDBEpisodeID: 1000 + ep, TMDBShowID: 1399, SeasonNumber: 1, EpisodeNumber: ep,
		}))
	}
	progress, err := svc.Progress(ctx, 1399)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.Watched)
	assert.Equal(t, 4, progress.Total)
	assert.False(t, progress.Completed)
	raw, err := json.Marshal(progress)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"percent":"75%"`)

	require.NoError(t, svc.MarkEpisodeWatched(ctx, EpisodeRequest{TMDBEpisodeID: 1004, TMDBShowID: 1399, SeasonNumber: 2, EpisodeNumber: 1}))
	progress, err = svc.Progress(ctx, 1399)
	require.NoError(t, err)
	assert.True(t, progress.Completed)

	require.NoError(t, svc.MarkEpisodeUnwatched(ctx, 1001))
	assert.ErrorIs(t, svc.MarkEpisodeUnwatched(ctx, 1001), ErrNotWatched)
	eps, err := svc.WatchedEpisodes(ctx, 1399)
	require.NoError(t, err)
	assert.Len(t, eps, 3)
}
