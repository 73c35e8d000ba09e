package models

import (
	"context"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WatchedModel struct {
	DB *pgxpool.Pool
}

func (m *WatchedModel) List(ctx context.Context, userID string) ([]models.WatchedMovie, error) {
	rows, _ := m.DB.Query(
		ctx,
		`SELECT user_id, tmdb_id, media_type, created_at FROM watched_movies WHERE user_id = $1 ORDER BY created_at, tmdb_id`,
		userID,
	)
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.WatchedMovie])
}

func (m *WatchedModel) Insert(ctx context.Context, userID string, ref models.ContentRef) error {
	_, err := m.InsertMissing(ctx, userID, []models.ContentRef{ref})
	return err
}

func (m *WatchedModel) InsertMissing(ctx context.Context, userID string, refs []models.ContentRef) (int, error) {
	if len(refs) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, ref := range refs {
		batch.Queue(
			`INSERT INTO watched_movies (user_id, tmdb_id, media_type) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			userID, ref.ID, ref.MediaType,
		)
	}
	return execInsertBatch(ctx, m.DB, batch)
}

func (m *WatchedModel) Delete(ctx context.Context, userID string, tmdbID int) error {
	status, err := m.DB.Exec(ctx, `DELETE FROM watched_movies WHERE user_id = $1 AND tmdb_id = $2`, userID, tmdbID)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
