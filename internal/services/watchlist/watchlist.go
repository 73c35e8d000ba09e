package watchlist

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cinepwa/proj/internal/domain/fields"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/services/auth"
	"cinepwa/proj/internal/storage"

	"golang.org/x/sync/errgroup"
)

const hydrateConcurrency = 8

type WatchlistStorage interface {
	List(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	Insert(ctx context.Context, userID string, ref models.ContentRef) error
	InsertMissing(ctx context.Context, userID string, refs []models.ContentRef) (int, error)
	Delete(ctx context.Context, userID string, tmdbID int) error
}

type WatchedStorage interface {
	List(ctx context.Context, userID string) ([]models.WatchedMovie, error)
	Insert(ctx context.Context, userID string, ref models.ContentRef) error
	InsertMissing(ctx context.Context, userID string, refs []models.ContentRef) (int, error)
	Delete(ctx context.Context, userID string, tmdbID int) error
}

type EpisodesStorage interface {
	Insert(ctx context.Context, ep models.WatchedEpisode) error
	Delete(ctx context.Context, userID string, episodeID int) error
	ListForShow(ctx context.Context, userID string, showID int) ([]models.WatchedEpisode, error)
	CountForShow(ctx context.Context, userID string, showID int) (int, error)
}

type SeriesCacheStorage interface {
	Get(ctx context.Context, tmdbID int) (*models.SeriesCache, error)
	Upsert(ctx context.Context, row models.SeriesCache) (*models.SeriesCache, error)
}

type ContentProvider interface {
	GetDetails(ctx context.Context, id int, mediaType models.MediaType) (*models.ContentDetails, error)
}

type Storage struct {
	Watchlist   WatchlistStorage
	Watched     WatchedStorage
	Episodes    EpisodesStorage
	SeriesCache SeriesCacheStorage
}

type WatchlistService struct {
	log      *slog.Logger
	storage  Storage
	content  ContentProvider
	cacheTTL time.Duration
	now      func() time.Time
}

func New(log *slog.Logger, storage Storage, content ContentProvider, seriesCacheTTL time.Duration) *WatchlistService {
	return &WatchlistService{
		log:      log,
		storage:  storage,
		content:  content,
		cacheTTL: seriesCacheTTL,
		now:      time.Now,
	}
}

// Hydrate resolves refs against the content provider in parallel, keeping
// their order. A ref whose lookup fails stays a bare {id, media_type} item.
func Hydrate(ctx context.Context, log *slog.Logger, content ContentProvider, refs []models.ContentRef) []models.ContentItem {
	items := make([]models.ContentItem, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)
	for i, ref := range refs {
		items[i] = models.ContentItem{ID: ref.ID, MediaType: ref.MediaType}
		g.Go(func() error {
			details, err := content.GetDetails(gctx, ref.ID, ref.MediaType)
			if err != nil {
				log.Warn("content lookup failed", "content_id", ref.ID, "media_type", ref.MediaType, "errMsg", err.Error())
				return nil
			}
			items[i] = details.ContentItem
			return nil
		})
	}
	g.Wait()
	return items
}

func (s *WatchlistService) List(ctx context.Context) ([]models.ContentItem, error) {
	const op = "watchlist.WatchlistService.List"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	log := s.log.With("op", op, "user_id", userID)
	entries, err := s.storage.Watchlist.List(ctx, userID)
	if err != nil {
		log.Error("failed to fetch watchlist", "errMsg", err.Error())
		return nil, err
	}
	refs := make([]models.ContentRef, len(entries))
	for i, e := range entries {
		refs[i] = models.ContentRef{ID: e.TMDBID, MediaType: e.MediaType}
	}
	return Hydrate(ctx, log, s.content, refs), nil
}

func (s *WatchlistService) Add(ctx context.Context, ref models.ContentRef) error {
	const op = "watchlist.WatchlistService.Add"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return err
	}
	if err := s.storage.Watchlist.Insert(ctx, userID, ref); err != nil {
		s.log.Error("failed to add to watchlist", "op", op, "user_id", userID, "content_id", ref.ID, "errMsg", err.Error())
		return err
	}
	return nil
}

func (s *WatchlistService) Remove(ctx context.Context, tmdbID int) error {
	const op = "watchlist.WatchlistService.Remove"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return err
	}
	if err := s.storage.Watchlist.Delete(ctx, userID, tmdbID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotInWatchlist
		}
		s.log.Error("failed to remove from watchlist", "op", op, "user_id", userID, "content_id", tmdbID, "errMsg", err.Error())
		return err
	}
	return nil
}

func (s *WatchlistService) WatchedIDs(ctx context.Context) ([]int, error) {
	const op = "watchlist.WatchlistService.WatchedIDs"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.storage.Watched.List(ctx, userID)
	if err != nil {
		s.log.Error("failed to fetch watched movies", "op", op, "user_id", userID, "errMsg", err.Error())
		return nil, err
	}
	ids := make([]int, len(rows))
	for i, row := range rows {
		ids[i] = row.TMDBID
	}
	return ids, nil
}

func (s *WatchlistService) MarkWatched(ctx context.Context, tmdbID int, mediaType models.MediaType) error {
	const op = "watchlist.WatchlistService.MarkWatched"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return err
	}
	if !mediaType.Valid() {
		mediaType = models.MediaMovie
	}
	if err := s.storage.Watched.Insert(ctx, userID, models.ContentRef{ID: tmdbID, MediaType: mediaType}); err != nil {
		s.log.Error("failed to mark as watched", "op", op, "user_id", userID, "content_id", tmdbID, "errMsg", err.Error())
		return err
	}
	return nil
}

func (s *WatchlistService) MarkUnwatched(ctx context.Context, tmdbID int) error {
	const op = "watchlist.WatchlistService.MarkUnwatched"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return err
	}
	if err := s.storage.Watched.Delete(ctx, userID, tmdbID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotWatched
		}
		s.log.Error("failed to mark as unwatched", "op", op, "user_id", userID, "content_id", tmdbID, "errMsg", err.Error())
		return err
	}
	return nil
}

type SyncRequest struct {
	Items      []models.ContentRef `json:"items" validate:"dive"`
	WatchedIDs []int               `json:"watched_ids" validate:"dive,gt=0"`
}

type SyncResult struct {
	Watchlist int `json:"watchlist"`
	Watched   int `json:"watched"`
}

// Sync inserts the pushed rows the caller does not have yet. It never updates
// or deletes. Watched ids take their media type from Items, defaulting to movie.
func (s *WatchlistService) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	const op = "watchlist.WatchlistService.Sync"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	log := s.log.With("op", op, "user_id", userID)
	types := make(map[int]models.MediaType, len(req.Items))
	for _, item := range req.Items {
		if _, ok := types[item.ID]; !ok {
			types[item.ID] = item.MediaType
		}
	}
	watched := make([]models.ContentRef, 0, len(req.WatchedIDs))
	for _, id := range req.WatchedIDs {
		mediaType, ok := types[id]
		if !ok {
			mediaType = models.MediaMovie
		}
		watched = append(watched, models.ContentRef{ID: id, MediaType: mediaType})
	}
	var result SyncResult
	if result.Watchlist, err = s.storage.Watchlist.InsertMissing(ctx, userID, req.Items); err != nil {
		log.Error("failed to sync watchlist", "errMsg", err.Error())
		return nil, err
	}
	if result.Watched, err = s.storage.Watched.InsertMissing(ctx, userID, watched); err != nil {
		log.Error("failed to sync watched movies", "errMsg", err.Error())
		return nil, err
	}
	log.Info("local data synced", "watchlist_inserted", result.Watchlist, "watched_inserted", result.Watched)
	return &result, nil
}

// Content is the snapshot a client cache replaces its state with.
func (s *WatchlistService) Content(ctx context.Context) (*models.UserContent, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.WatchedIDs(ctx)
	if err != nil {
		return nil, err
	}
	return &models.UserContent{Watchlist: items, WatchedIDs: ids}, nil
}

type EpisodeRequest struct {
	TMDBEpisodeID int `json:"tmdb_episode_id" validate:"required,gt=0"`
	TMDBShowID    int `json:"tmdb_show_id" validate:"required,gt=0"`
	SeasonNumber  int `json:"season_number" validate:"gte=0"`
	EpisodeNumber int `json:"episode_number" validate:"gt=0"`
}

func (s *WatchlistService) MarkEpisodeWatched(ctx context.Context, req EpisodeRequest) error {
	const op = "watchlist.WatchlistService.MarkEpisodeWatched"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return err
	}
	err = s.storage.Episodes.Insert(ctx, models.WatchedEpisode{
		UserID:        userID,
		TMDBEpisodeID: req.TMDBEpisodeID,
		TMDBShowID:    req.TMDBShowID,
		SeasonNumber:  req.SeasonNumber,
		EpisodeNumber: req.EpisodeNumber,
	})
	if err != nil {
		s.log.Error("failed to mark episode", "op", op, "user_id", userID, "episode_id", req.TMDBEpisodeID, "errMsg", err.Error())
		return err
	}
	return nil
}

func (s *WatchlistService) MarkEpisodeUnwatched(ctx context.Context, episodeID int) error {
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return err
	}
	if err := s.storage.Episodes.Delete(ctx, userID, episodeID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotWatched
		}
		return err
	}
	return nil
}

func (s *WatchlistService) WatchedEpisodes(ctx context.Context, showID int) ([]models.WatchedEpisode, error) {
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	return s.storage.Episodes.ListForShow(ctx, userID, showID)
}

// SeriesInfo returns the cached episode counts of a show, refreshing them from
// the content provider when missing or stale.
func (s *WatchlistService) SeriesInfo(ctx context.Context, showID int) (*models.SeriesCache, error) {
	const op = "watchlist.WatchlistService.SeriesInfo"
	log := s.log.With("op", op, "show_id", showID)
	cached, err := s.storage.SeriesCache.Get(ctx, showID)
	switch {
	case err == nil && s.now().Sub(cached.UpdatedAt) < s.cacheTTL:
		return cached, nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		log.Error("failed to read series cache", "errMsg", err.Error())
		return nil, err
	}
	details, err := s.content.GetDetails(ctx, showID, models.MediaTV)
	if err != nil {
		if cached != nil {
			log.Warn("serving stale series cache", "errMsg", err.Error())
			return cached, nil
		}
		log.Info("series lookup failed", "errMsg", err.Error())
		return nil, ErrSeriesNotFound
	}
	row, err := s.storage.SeriesCache.Upsert(ctx, models.SeriesCache{
		TMDBID:          showID,
		TotalEpisodes:   details.NumberOfEpisodes,
		NumberOfSeasons: details.NumberOfSeasons,
	})
	if err != nil {
		log.Error("failed to update series cache", "errMsg", err.Error())
		return nil, err
	}
	log.Debug("series cache refreshed")
	return row, nil
}

type Progress struct {
	ShowID          int            `json:"show_id"`
	Watched         int            `json:"watched"`
	Total           int            `json:"total"`
	NumberOfSeasons int            `json:"number_of_seasons"`
	Percent         fields.Percent `json:"percent"`
	Completed       bool           `json:"completed"`
}

func (s *WatchlistService) Progress(ctx context.Context, showID int) (*Progress, error) {
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	info, err := s.SeriesInfo(ctx, showID)
	if err != nil {
		return nil, err
	}
	watched, err := s.storage.Episodes.CountForShow(ctx, userID, showID)
	if err != nil {
		return nil, err
	}
	return &Progress{
		ShowID:          showID,
		Watched:         watched,
		Total:           info.TotalEpisodes,
		NumberOfSeasons: info.NumberOfSeasons,
		Percent:         fields.NewPercent(watched, info.TotalEpisodes),
		Completed:       info.TotalEpisodes > 0 && watched >= info.TotalEpisodes,
	}, nil
}
