package models

import (
	"context"
	"errors"
	"time"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/storage"
	"cinepwa/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokenModel struct {
	DB *pgxpool.Pool
}

func (m *TokenModel) InsertMagicLink(ctx context.Context, hash []byte, link models.MagicLink) error {
	_, err := m.DB.Exec(
		ctx,
		`INSERT INTO magic_links (token_hash, email, requested_by, expires_at) VALUES ($1, $2, NULLIF($3, '')::uuid, $4)`,
		hash,
		link.Email,
		link.RequestedBy,
		link.ExpiresAt,
	)
	return err
}

// ConsumeMagicLink deletes the link and returns it. Expired or unknown links
// yield storage.ErrNotFound.
func (m *TokenModel) ConsumeMagicLink(ctx context.Context, hash []byte) (*models.MagicLink, error) {
	rows, _ := m.DB.Query(
		ctx,
		`DELETE FROM magic_links WHERE token_hash = $1 AND expires_at > now()
		RETURNING email, COALESCE(requested_by::text, '') AS requested_by, expires_at`,
		hash,
	)
	link, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.MagicLink])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// InsertMigrationGrant lets newUserID take over oldUserID's data until expiresAt.
// A second grant for the same pair only extends the expiry.
func (m *TokenModel) InsertMigrationGrant(ctx context.Context, oldUserID, newUserID string, expiresAt time.Time) error {
	_, err := m.DB.Exec(
		ctx,
		`INSERT INTO migration_grants (old_user_id, new_user_id, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (old_user_id, new_user_id) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		oldUserID,
		newUserID,
		expiresAt,
	)
	if postgres.IsCode(err, postgres.ErrForeignKeyCode) {
		return storage.ErrNotFound
	}
	return err
}

func (m *TokenModel) HasMigrationGrant(ctx context.Context, oldUserID, newUserID string) (bool, error) {
	var ok bool
	err := m.DB.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM migration_grants WHERE old_user_id = $1 AND new_user_id = $2 AND expires_at > now())`,
		oldUserID,
		newUserID,
	).Scan(&ok)
	if postgres.IsCode(err, postgres.ErrInvalidTextCode) {
		return false, nil
	}
	return ok, err
}

func (m *TokenModel) RevokeSession(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := m.DB.Exec(
		ctx,
		`INSERT INTO revoked_sessions (jti, expires_at) VALUES ($1, $2) ON CONFLICT (jti) DO NOTHING`,
		jti,
		expiresAt,
	)
	return err
}

func (m *TokenModel) IsSessionRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := m.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM revoked_sessions WHERE jti = $1)`, jti).Scan(&revoked)
	return revoked, err
}
