package models

import (
	"context"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/storage"
	"cinepwa/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MemberModel struct {
	DB *pgxpool.Pool
}

const memberColumns = `list_id, user_id, role, member_name, created_at`

func (m *MemberModel) Get(ctx context.Context, listID, userID string) (*models.ListMember, error) {
	rows, _ := m.DB.Query(
		ctx,
		`SELECT `+memberColumns+` FROM list_members WHERE list_id = $1 AND user_id = $2`,
		listID,
		userID,
	)
	member, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.ListMember])
	if err != nil {
		if postgres.IsNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (m *MemberModel) List(ctx context.Context, listID string) ([]models.ListMember, error) {
	rows, _ := m.DB.Query(
		ctx,
		`SELECT `+memberColumns+` FROM list_members WHERE list_id = $1 ORDER BY created_at, user_id`,
		listID,
	)
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.ListMember])
}

// Insert adds the membership unless one already exists for (list_id, user_id).
// The existing row is never modified; inserted reports which case happened.
func (m *MemberModel) Insert(ctx context.Context, member models.ListMember) (inserted bool, err error) {
	status, err := m.DB.Exec(
		ctx,
		`INSERT INTO list_members (list_id, user_id, role, member_name) VALUES ($1, $2, $3, $4)
		ON CONFLICT (list_id, user_id) DO NOTHING`,
		member.ListID,
		member.UserID,
		member.Role,
		member.MemberName,
	)
	if err != nil {
		switch {
		case postgres.IsCode(err, postgres.ErrForeignKeyCode):
			return false, storage.ErrNotFound
		case postgres.IsCode(err, postgres.ErrConflictCode):
			return false, storage.ErrConflict
		}
		return false, err
	}
	return status.RowsAffected() == 1, nil
}

func (m *MemberModel) SetName(ctx context.Context, listID, userID, name string) error {
	status, err := m.DB.Exec(
		ctx,
		`UPDATE list_members SET member_name = $1 WHERE list_id = $2 AND user_id = $3`,
		name,
		listID,
		userID,
	)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *MemberModel) Delete(ctx context.Context, listID, userID string) error {
	status, err := m.DB.Exec(ctx, `DELETE FROM list_members WHERE list_id = $1 AND user_id = $2`, listID, userID)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
