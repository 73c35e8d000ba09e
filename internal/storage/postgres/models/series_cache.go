package models

import (
	"context"
	"errors"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SeriesCacheModel struct {
	DB *pgxpool.Pool
}

func (m *SeriesCacheModel) Get(ctx context.Context, tmdbID int) (*models.SeriesCache, error) {
	rows, _ := m.DB.Query(
		ctx,
		`SELECT tmdb_id, total_episodes, number_of_seasons, updated_at FROM series_cache WHERE tmdb_id = $1`,
		tmdbID,
	)
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.SeriesCache])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (m *SeriesCacheModel) Upsert(ctx context.Context, row models.SeriesCache) (*models.SeriesCache, error) {
	rows, _ := m.DB.Query(
		ctx,
		`INSERT INTO series_cache (tmdb_id, total_episodes, number_of_seasons, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (tmdb_id) DO UPDATE SET
			total_episodes = excluded.total_episodes,
			number_of_seasons = excluded.number_of_seasons,
			updated_at = excluded.updated_at
		RETURNING tmdb_id, total_episodes, number_of_seasons, updated_at`,
		row.TMDBID,
		row.TotalEpisodes,
		row.NumberOfSeasons,
	)
	saved, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.SeriesCache])
	if err != nil {
		return nil, err
	}
	return &saved, nil
}
