package models

import (
	"context"

	"cinepwa/proj/internal/storage"
	"cinepwa/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcedureModel calls the stored procedures defined by the schema migrations.
type ProcedureModel struct {
	DB *pgxpool.Pool
}

func (m *ProcedureModel) GetListName(ctx context.Context, listID string) (string, error) {
	var name *string
	if err := m.DB.QueryRow(ctx, `SELECT get_list_name($1)`, listID).Scan(&name); err != nil {
		if postgres.IsNotFound(err) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	if name == nil {
		return "", storage.ErrNotFound
	}
	return *name, nil
}

// MigrateUserData runs migrate_user_data and spends oldUserID's migration
// grants in the same transaction.
func (m *ProcedureModel) MigrateUserData(ctx context.Context, oldUserID, newUserID string) error {
	return pgx.BeginFunc(ctx, m.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT migrate_user_data($1, $2)`, oldUserID, newUserID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM migration_grants WHERE old_user_id = $1`, oldUserID)
		return err
	})
}
