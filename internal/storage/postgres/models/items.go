package models

import (
	"context"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/storage"
	"cinepwa/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ItemModel struct {
	DB *pgxpool.Pool
}

const itemColumns = `i.id, i.list_id, i.content_id, i.content_type, i.added_by, i.created_at`

func (m *ItemModel) Insert(ctx context.Context, listID string, ref models.ContentRef, addedBy string) (*models.ListItem, error) {
	rows, _ := m.DB.Query(
		ctx,
		`INSERT INTO list_items AS i (list_id, content_id, content_type, added_by) VALUES ($1, $2, $3, $4)
		RETURNING `+itemColumns,
		listID,
		ref.ID,
		ref.MediaType,
		addedBy,
	)
	item, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.ListItem])
	if err != nil {
		if postgres.IsCode(err, postgres.ErrForeignKeyCode) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (m *ItemModel) Get(ctx context.Context, id string) (*models.ListItem, error) {
	rows, _ := m.DB.Query(ctx, `SELECT `+itemColumns+` FROM list_items i WHERE i.id = $1`, id)
	item, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.ListItem])
	if err != nil {
		if postgres.IsNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (m *ItemModel) List(ctx context.Context, listID string) ([]models.ListItem, error) {
	rows, _ := m.DB.Query(
		ctx,
		`SELECT `+itemColumns+` FROM list_items i WHERE i.list_id = $1 ORDER BY i.created_at, i.id`,
		listID,
	)
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.ListItem])
}

func (m *ItemModel) Delete(ctx context.Context, id string) error {
	status, err := m.DB.Exec(ctx, `DELETE FROM list_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ForContent returns the items holding the given title inside lists userID
// belongs to, oldest first.
func (m *ItemModel) ForContent(ctx context.Context, userID string, contentID int, contentType models.MediaType) ([]models.ListItem, error) {
	rows, _ := m.DB.Query(
		ctx,
		`SELECT `+itemColumns+` FROM list_items i
		JOIN list_members lm ON lm.list_id = i.list_id AND lm.user_id = $1
		WHERE i.content_id = $2 AND i.content_type = $3
		ORDER BY i.created_at, i.id`,
		userID,
		contentID,
		contentType,
	)
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.ListItem])
}
