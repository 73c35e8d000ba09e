package memory

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/storage"

	"github.com/google/uuid"
)

type UserModel struct {
	db *DB
}

func (m *UserModel) Insert(_ context.Context, email string, isAnonymous bool) (*models.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("users.insert"); err != nil {
		return nil, err
	}
	if email != "" {
		for _, u := range m.db.st.users {
			if strings.EqualFold(u.Email, email) {
				return nil, storage.ErrConflict
			}
		}
	}
	now := m.db.tick()
	user := models.User{
		ID:          uuid.NewString(),
		Email:       email,
		IsAnonymous: isAnonymous,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.db.st.users[user.ID] = user
	return &user, nil
}

func (m *UserModel) Get(_ context.Context, id string) (*models.User, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	user, ok := m.db.st.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &user, nil
}

func (m *UserModel) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	for _, u := range m.db.st.users {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *UserModel) UpdateDisplayName(_ context.Context, id, name string) (*models.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("users.update_display_name"); err != nil {
		return nil, err
	}
	user, ok := m.db.st.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	user.DisplayName = name
	user.UpdatedAt = m.db.tick()
	m.db.st.users[id] = user
	return &user, nil
}

type TokenModel struct {
	db *DB
}

func (m *TokenModel) InsertMagicLink(_ context.Context, hash []byte, link models.MagicLink) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("magic_links.insert"); err != nil {
		return err
	}
	m.db.st.magicLinks[hex.EncodeToString(hash)] = link
	return nil
}

func (m *TokenModel) ConsumeMagicLink(_ context.Context, hash []byte) (*models.MagicLink, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	key := hex.EncodeToString(hash)
	link, ok := m.db.st.magicLinks[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	delete(m.db.st.magicLinks, key)
	if !link.ExpiresAt.After(time.Now()) {
		return nil, storage.ErrNotFound
	}
	return &link, nil
}

func (m *TokenModel) InsertMigrationGrant(_ context.Context, oldUserID, newUserID string, expiresAt time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("migration_grants.insert"); err != nil {
		return err
	}
	if _, ok := m.db.st.users[oldUserID]; !ok {
		return storage.ErrNotFound
	}
	m.db.st.grants[grantKey{oldUserID, newUserID}] = expiresAt
	return nil
}

func (m *TokenModel) HasMigrationGrant(_ context.Context, oldUserID, newUserID string) (bool, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	expiresAt, ok := m.db.st.grants[grantKey{oldUserID, newUserID}]
	return ok && expiresAt.After(time.Now()), nil
}

func (m *TokenModel) RevokeSession(_ context.Context, jti string, expiresAt time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.st.revoked[jti] = expiresAt
	return nil
}

func (m *TokenModel) IsSessionRevoked(_ context.Context, jti string) (bool, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	_, ok := m.db.st.revoked[jti]
	return ok, nil
}
