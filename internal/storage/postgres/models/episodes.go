package models

import (
	"context"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EpisodeModel struct {
	DB *pgxpool.Pool
}

const episodeColumns = `user_id, tmdb_episode_id, tmdb_show_id, season_number, episode_number, created_at`

func (m *EpisodeModel) Insert(ctx context.Context, ep models.WatchedEpisode) error {
	_, err := m.DB.Exec(
		ctx,
		`INSERT INTO watched_episodes (user_id, tmdb_episode_id, tmdb_show_id, season_number, episode_number)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
		ep.UserID,
		ep.TMDBEpisodeID,
		ep.TMDBShowID,
		ep.SeasonNumber,
		ep.EpisodeNumber,
	)
	return err
}

func (m *EpisodeModel) Delete(ctx context.Context, userID string, episodeID int) error {
	status, err := m.DB.Exec(
		ctx,
		`DELETE FROM watched_episodes WHERE user_id = $1 AND tmdb_episode_id = $2`,
		userID,
		episodeID,
	)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *EpisodeModel) ListForShow(ctx context.Context, userID string, showID int) ([]models.WatchedEpisode, error) {
	rows, _ := m.DB.Query(
		ctx,
		`SELECT `+episodeColumns+` FROM watched_episodes WHERE user_id = $1 AND tmdb_show_id = $2
		ORDER BY season_number, episode_number`,
		userID,
		showID,
	)
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.WatchedEpisode])
}

func (m *EpisodeModel) CountForShow(ctx context.Context, userID string, showID int) (int, error) {
	var count int
	err := m.DB.QueryRow(
		ctx,
		`SELECT count(*) FROM watched_episodes WHERE user_id = $1 AND tmdb_show_id = $2`,
		userID,
		showID,
	).Scan(&count)
	return count, err
}
