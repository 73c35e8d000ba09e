package models

import (
	"context"
	"fmt"

	"cinepwa/proj/internal/domain/filters"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/storage"
	"cinepwa/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ListModel struct {
	DB *pgxpool.Pool
}

const listColumns = `l.id, l.name, l.owner_id, l.created_at, l.updated_at`

// Create inserts the list and its owner membership in one transaction.
func (m *ListModel) Create(ctx context.Context, name, ownerID string) (*models.List, error) {
	var list models.List
	err := pgx.BeginFunc(ctx, m.DB, func(tx pgx.Tx) error {
		rows, _ := tx.Query(
			ctx,
			`INSERT INTO lists AS l (name, owner_id) VALUES ($1, $2) RETURNING `+listColumns,
			name,
			ownerID,
		)
		var err error
		list, err = pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[models.List])
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			ctx,
			`INSERT INTO list_members (list_id, user_id, role) VALUES ($1, $2, $3)`,
			list.ID,
			ownerID,
			models.RoleOwner,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	list.Role = models.RoleOwner
	return &list, nil
}

func (m *ListModel) Get(ctx context.Context, id string) (*models.List, error) {
	rows, _ := m.DB.Query(ctx, `SELECT `+listColumns+` FROM lists l WHERE l.id = $1`, id)
	list, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[models.List])
	if err != nil {
		if postgres.IsNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &list, nil
}

// ListForMember returns every list userID belongs to, annotated with that user's role.
func (m *ListModel) ListForMember(ctx context.Context, userID string, f filters.Filters) ([]models.List, error) {
	query := fmt.Sprintf(`
	SELECT %s, lm.role FROM lists l
	JOIN list_members lm ON lm.list_id = l.id AND lm.user_id = $1
	ORDER BY l.%s %s, l.id ASC
	`, listColumns, f.SortColumn(), f.SortDirection())
	rows, _ := m.DB.Query(ctx, query, userID)
	lists, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.List])
	if err != nil {
		return nil, err
	}
	return lists, nil
}

func (m *ListModel) Rename(ctx context.Context, id, name string) (*models.List, error) {
	rows, _ := m.DB.Query(
		ctx,
		`UPDATE lists AS l SET name = $1, updated_at = now() WHERE l.id = $2 RETURNING `+listColumns,
		name,
		id,
	)
	list, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[models.List])
	if err != nil {
		if postgres.IsNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &list, nil
}

// Delete removes the list; memberships and items go with it through ON DELETE CASCADE.
func (m *ListModel) Delete(ctx context.Context, id string) error {
	status, err := m.DB.Exec(ctx, `DELETE FROM lists WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
