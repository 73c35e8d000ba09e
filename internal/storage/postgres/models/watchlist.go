package models

import (
	"context"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WatchlistModel struct {
	DB *pgxpool.Pool
}

func (m *WatchlistModel) List(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	rows, _ := m.DB.Query(
		ctx,
		`SELECT user_id, tmdb_id, media_type, created_at FROM watchlists WHERE user_id = $1 ORDER BY created_at, tmdb_id`,
		userID,
	)
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.WatchlistEntry])
}

func (m *WatchlistModel) Insert(ctx context.Context, userID string, ref models.ContentRef) error {
	_, err := m.InsertMissing(ctx, userID, []models.ContentRef{ref})
	return err
}

// InsertMissing inserts the refs that are not stored yet and returns how many were new.
func (m *WatchlistModel) InsertMissing(ctx context.Context, userID string, refs []models.ContentRef) (int, error) {
	if len(refs) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, ref := range refs {
		batch.Queue(
			`INSERT INTO watchlists (user_id, tmdb_id, media_type) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			userID, ref.ID, ref.MediaType,
		)
	}
	return execInsertBatch(ctx, m.DB, batch)
}

// Delete removes the title regardless of its media type.
func (m *WatchlistModel) Delete(ctx context.Context, userID string, tmdbID int) error {
	status, err := m.DB.Exec(ctx, `DELETE FROM watchlists WHERE user_id = $1 AND tmdb_id = $2`, userID, tmdbID)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func execInsertBatch(ctx context.Context, db *pgxpool.Pool, batch *pgx.Batch) (int, error) {
	inserted := 0
	err := pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			status, err := results.Exec()
			if err != nil {
				results.Close()
				return err
			}
			inserted += int(status.RowsAffected())
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
