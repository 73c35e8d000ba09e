package memory

import (
	"context"
	"sort"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/storage"
)

type WatchlistModel struct {
	db *DB
}

func (m *WatchlistModel) List(_ context.Context, userID string) ([]models.WatchlistEntry, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	entries := make([]models.WatchlistEntry, 0)
	for _, e := range m.db.st.watchlist {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (m *WatchlistModel) Insert(ctx context.Context, userID string, ref models.ContentRef) error {
	_, err := m.InsertMissing(ctx, userID, []models.ContentRef{ref})
	return err
}

func (m *WatchlistModel) InsertMissing(_ context.Context, userID string, refs []models.ContentRef) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("watchlist.insert"); err != nil {
		return 0, err
	}
	if _, ok := m.db.st.users[userID]; !ok {
		return 0, storage.ErrNotFound
	}
	inserted := 0
	for _, ref := range refs {
		if m.db.st.hasWatchlist(userID, ref) {
			continue
		}
		m.db.st.watchlist = append(m.db.st.watchlist, models.WatchlistEntry{
			UserID:    userID,
			TMDBID:    ref.ID,
			MediaType: ref.MediaType,
			CreatedAt: m.db.tick(),
		})
		inserted++
	}
	return inserted, nil
}

func (m *WatchlistModel) Delete(_ context.Context, userID string, tmdbID int) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("watchlist.delete"); err != nil {
		return err
	}
	kept := m.db.st.watchlist[:0]
	removed := false
	for _, e := range m.db.st.watchlist {
		if e.UserID == userID && e.TMDBID == tmdbID {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	m.db.st.watchlist = kept
	if !removed {
		return storage.ErrNotFound
	}
	return nil
}

func (s *state) hasWatchlist(userID string, ref models.ContentRef) bool {
	for _, e := range s.watchlist {
		if e.UserID == userID && e.TMDBID == ref.ID && e.MediaType == ref.MediaType {
			return true
		}
	}
	return false
}

type WatchedModel struct {
	db *DB
}

func (m *WatchedModel) List(_ context.Context, userID string) ([]models.WatchedMovie, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	rows := make([]models.WatchedMovie, 0)
	for _, w := range m.db.st.watched {
		if w.UserID == userID {
			rows = append(rows, w)
		}
	}
	return rows, nil
}

func (m *WatchedModel) Insert(ctx context.Context, userID string, ref models.ContentRef) error {
	_, err := m.InsertMissing(ctx, userID, []models.ContentRef{ref})
	return err
}

func (m *WatchedModel) InsertMissing(_ context.Context, userID string, refs []models.ContentRef) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("watched.insert"); err != nil {
		return 0, err
	}
	if _, ok := m.db.st.users[userID]; !ok {
		return 0, storage.ErrNotFound
	}
	inserted := 0
	for _, ref := range refs {
		if m.db.st.hasWatched(userID, ref.ID) {
			continue
		}
		mediaType := ref.MediaType
		if mediaType == "" {
			mediaType = models.MediaMovie
		}
		m.db.st.watched = append(m.db.st.watched, models.WatchedMovie{
			UserID:    userID,
			TMDBID:    ref.ID,
			MediaType: mediaType,
			CreatedAt: m.db.tick(),
		})
		inserted++
	}
	return inserted, nil
}

func (m *WatchedModel) Delete(_ context.Context, userID string, tmdbID int) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("watched.delete"); err != nil {
		return err
	}
	for i, w := range m.db.st.watched {
		if w.UserID == userID && w.TMDBID == tmdbID {
			m.db.st.watched = append(m.db.st.watched[:i], m.db.st.watched[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *state) hasWatched(userID string, tmdbID int) bool {
	for _, w := range s.watched {
		if w.UserID == userID && w.TMDBID == tmdbID {
			return true
		}
	}
	return false
}

type EpisodeModel struct {
	db *DB
}

func (m *EpisodeModel) Insert(_ context.Context, ep models.WatchedEpisode) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("watched_episodes.insert"); err != nil {
		return err
	}
	if _, ok := m.db.st.users[ep.UserID]; !ok {
		return storage.ErrNotFound
	}
	if m.db.st.hasEpisode(ep.UserID, ep.TMDBEpisodeID) {
		return nil
	}
	ep.CreatedAt = m.db.tick()
	m.db.st.episodes = append(m.db.st.episodes, ep)
	return nil
}

func (m *EpisodeModel) Delete(_ context.Context, userID string, episodeID int) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for i, ep := range m.db.st.episodes {
		if ep.UserID == userID && ep.TMDBEpisodeID == episodeID {
			m.db.st.episodes = append(m.db.st.episodes[:i], m.db.st.episodes[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *EpisodeModel) ListForShow(_ context.Context, userID string, showID int) ([]models.WatchedEpisode, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	eps := make([]models.WatchedEpisode, 0)
	for _, ep := range m.db.st.episodes {
		if ep.UserID == userID && ep.TMDBShowID == showID {
			eps = append(eps, ep)
		}
	}
	sort.SliceStable(eps, func(i, j int) bool {
		if eps[i].SeasonNumber != eps[j].SeasonNumber {
			return eps[i].SeasonNumber < eps[j].SeasonNumber
		}
		return eps[i].EpisodeNumber < eps[j].EpisodeNumber
	})
	return eps, nil
}

func (m *EpisodeModel) CountForShow(ctx context.Context, userID string, showID int) (int, error) {
	eps, err := m.ListForShow(ctx, userID, showID)
	return len(eps), err
}

func (s *state) hasEpisode(userID string, episodeID int) bool {
	for _, ep := range s.episodes {
		if ep.UserID == userID && ep.TMDBEpisodeID == episodeID {
			return true
		}
	}
	return false
}

type SeriesCacheModel struct {
	db *DB
}

func (m *SeriesCacheModel) Get(_ context.Context, tmdbID int) (*models.SeriesCache, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	row, ok := m.db.st.series[tmdbID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &row, nil
}

func (m *SeriesCacheModel) Upsert(_ context.Context, row models.SeriesCache) (*models.SeriesCache, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("series_cache.upsert"); err != nil {
		return nil, err
	}
	row.UpdatedAt = m.db.tick()
	m.db.st.series[row.TMDBID] = row
	return &row, nil
}
