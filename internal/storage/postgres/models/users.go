package models

import (
	"context"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/storage"
	"cinepwa/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserModel struct {
	DB *pgxpool.Pool
}

const userColumns = `id, coalesce(email, '') AS email, display_name, is_anonymous, created_at, updated_at`

func (m *UserModel) Insert(ctx context.Context, email string, isAnonymous bool) (*models.User, error) {
	var emailArg any
	if email != "" {
		emailArg = email
	}
	rows, _ := m.DB.Query(
		ctx,
		`INSERT INTO users (email, is_anonymous) VALUES ($1, $2) RETURNING `+userColumns,
		emailArg,
		isAnonymous,
	)
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		if postgres.IsCode(err, postgres.ErrConflictCode) {
			return nil, storage.ErrConflict
		}
		return nil, err
	}
	return &user, nil
}

func (m *UserModel) Get(ctx context.Context, id string) (*models.User, error) {
	rows, _ := m.DB.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return collectUser(rows)
}

func (m *UserModel) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	rows, _ := m.DB.Query(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return collectUser(rows)
}

func (m *UserModel) UpdateDisplayName(ctx context.Context, id, name string) (*models.User, error) {
	rows, _ := m.DB.Query(
		ctx,
		`UPDATE users SET display_name = $1, updated_at = now() WHERE id = $2 RETURNING `+userColumns,
		name,
		id,
	)
	return collectUser(rows)
}

func collectUser(rows pgx.Rows) (*models.User, error) {
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		if postgres.IsNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
