package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/services/auth"
	"cinepwa/proj/internal/storage"
)

type UserGetter interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// GrantStorage answers whether signing in as newUserID was started from
// oldUserID's anonymous session, which is what entitles the migration.
type GrantStorage interface {
	HasMigrationGrant(ctx context.Context, oldUserID, newUserID string) (bool, error)
}

// Migrator moves every row of one user to another in a single transaction.
type Migrator interface {
	MigrateUserData(ctx context.Context, oldUserID, newUserID string) error
}

type MigrationService struct {
	log      *slog.Logger
	users    UserGetter
	grants   GrantStorage
	migrator Migrator
}

func New(log *slog.Logger, users UserGetter, grants GrantStorage, migrator Migrator) *MigrationService {
	return &MigrationService{log: log, users: users, grants: grants, migrator: migrator}
}

// Migrate hands the data of the anonymous user oldUserID over to the caller.
// The caller must have signed in through a magic link requested from
// oldUserID's session. Empty or equal ids make it a no-op.
func (s *MigrationService) Migrate(ctx context.Context, oldUserID, newUserID string) error {
	const op = "migration.MigrationService.Migrate"
	log := s.log.With("op", op, "old_user_id", oldUserID, "new_user_id", newUserID)
	if oldUserID == "" || newUserID == "" || oldUserID == newUserID {
		log.Debug("nothing to migrate")
		return nil
	}
	callerID, err := auth.CallerID(ctx)
	if err != nil {
		return err
	}
	if callerID != newUserID {
		log.Warn("caller is not the target user", "caller_id", callerID)
		return ErrForbidden
	}
	old, err := s.users.Get(ctx, oldUserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("old user not found")
			return ErrForbidden
		}
		return err
	}
	if !old.IsAnonymous {
		log.Warn("refusing to migrate a registered user")
		return ErrForbidden
	}
	granted, err := s.grants.HasMigrationGrant(ctx, oldUserID, newUserID)
	if err != nil {
		log.Error("failed to check migration grant", "errMsg", err.Error())
		return err
	}
	if !granted {
		log.Warn("no migration grant for this sign-in")
		return ErrForbidden
	}
	if err := s.migrator.MigrateUserData(ctx, oldUserID, newUserID); err != nil {
		log.Error("migration failed", "errMsg", err.Error())
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}
	log.Info("user data migrated")
	return nil
}
