// Package session keeps the client's identity: the stored session, the
// anonymous to authenticated upgrade and the pending migration marker.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cinepwa/proj/internal/clients/api"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/localstore"
	"cinepwa/proj/internal/storage"
	"cinepwa/proj/internal/utils"
)

const (
	sessionKey          = "cinepwa-session"
	pendingMigrationKey = "cinepwa-pending-migration"
)

type Remote interface {
	SetToken(token string)
	SignInAnonymously(ctx context.Context) (*models.Session, error)
	RequestMagicLink(ctx context.Context, email string) error
	VerifyMagicLink(ctx context.Context, token string) (*models.Session, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	UpdateDisplayName(ctx context.Context, name string) (*models.User, error)
	Logout(ctx context.Context) error
}

type Migrator interface {
	MigrateUserData(ctx context.Context, oldUserID, newUserID string) error
}

// Notifier shows transient, non-blocking messages to the user.
type Notifier interface {
	Notify(msg string, err error)
}

type Service struct {
	log      *slog.Logger
	store    localstore.Store
	remote   Remote
	migrator Migrator
	notifier Notifier
	now      func() time.Time

	mu      sync.Mutex
	current *models.Session
}

func New(log *slog.Logger, store localstore.Store, remote Remote, migrator Migrator, notifier Notifier) *Service {
	return &Service{
		log:      log,
		store:    store,
		remote:   remote,
		migrator: migrator,
		notifier: notifier,
		now:      time.Now,
	}
}

// EstablishSession returns the id of the active identity, creating an
// anonymous one when there is none. Only failing to get any session is an error.
func (s *Service) EstablishSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.establish(ctx)
}

func (s *Service) establish(ctx context.Context) (string, error) {
	const op = "session.Service.EstablishSession"
	log := s.log.With("op", op)
	sess, err := s.validStoredSession(ctx)
	if err != nil {
		return "", &AuthError{Op: "load session", Err: err}
	}
	if sess == nil {
		return s.signInAnonymously(ctx)
	}
	if !sess.User.IsAnonymous {
		s.runPendingMigration(ctx, sess.User.ID)
		s.backfillDisplayName(ctx, sess)
	}
	s.current = sess
	log.Debug("session established", "user_id", sess.User.ID, "anonymous", sess.User.IsAnonymous)
	return sess.User.ID, nil
}

// validStoredSession returns nil when nothing usable is stored.
func (s *Service) validStoredSession(ctx context.Context) (*models.Session, error) {
	log := s.log.With("op", "session.Service.validStoredSession")
	sess, err := s.loadSession(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	if !sess.ExpiresAt.IsZero() && !s.now().Before(sess.ExpiresAt) {
		log.Info("stored session expired", "user_id", sess.User.ID)
		return nil, s.clearSession(ctx)
	}
	s.remote.SetToken(sess.AccessToken)
	user, err := s.remote.CurrentUser(ctx)
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		log.Info("stored session rejected", "user_id", sess.User.ID)
		s.remote.SetToken("")
		return nil, s.clearSession(ctx)
	case err != nil:
		// Keep working with what is stored while the backend is unreachable.
		log.Warn("could not refresh the profile", "errMsg", err.Error())
		return sess, nil
	}
	sess.User = *user
	if err := s.saveSession(ctx, sess); err != nil {
		log.Warn("failed to persist profile", "errMsg", err.Error())
	}
	return sess, nil
}

func (s *Service) signInAnonymously(ctx context.Context) (string, error) {
	s.remote.SetToken("")
	sess, err := s.remote.SignInAnonymously(ctx)
	if err != nil {
		return "", &AuthError{Op: "sign in anonymously", Err: err}
	}
	if err := s.saveSession(ctx, sess); err != nil {
		return "", &AuthError{Op: "store session", Err: err}
	}
	s.remote.SetToken(sess.AccessToken)
	s.current = sess
	s.log.Info("anonymous session created", "user_id", sess.User.ID)
	return sess.User.ID, nil
}

// runPendingMigration moves the data of the recorded anonymous id to userID.
// The marker is cleared whatever the outcome, so a failing migration is tried once.
func (s *Service) runPendingMigration(ctx context.Context, userID string) {
	log := s.log.With("op", "session.Service.runPendingMigration", "user_id", userID)
	raw, err := s.store.Get(ctx, pendingMigrationKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("failed to read pending migration", "errMsg", err.Error())
		}
		return
	}
	oldUserID := string(raw)
	defer func() {
		if err := s.store.Delete(ctx, pendingMigrationKey); err != nil {
			log.Warn("failed to clear pending migration", "errMsg", err.Error())
		}
	}()
	if oldUserID == "" || oldUserID == userID {
		return
	}
	if err := s.migrator.MigrateUserData(ctx, oldUserID, userID); err != nil {
		log.Error("migration failed", "old_user_id", oldUserID, "errMsg", err.Error())
		s.notifier.Notify(ErrMigration.Error(), fmt.Errorf("%w: %w", ErrMigration, err))
		return
	}
	log.Info("anonymous data migrated", "old_user_id", oldUserID)
}

func (s *Service) backfillDisplayName(ctx context.Context, sess *models.Session) {
	if strings.TrimSpace(sess.User.DisplayName) != "" || sess.User.Email == "" {
		return
	}
	log := s.log.With("op", "session.Service.backfillDisplayName", "user_id", sess.User.ID)
	user, err := s.remote.UpdateDisplayName(ctx, utils.EmailLocalPart(sess.User.Email))
	if err != nil {
		log.Warn("failed to backfill display name", "errMsg", err.Error())
		return
	}
	sess.User = *user
	if err := s.saveSession(ctx, sess); err != nil {
		log.Warn("failed to persist profile", "errMsg", err.Error())
	}
}

// BeginEmailSignIn asks for a magic link. An anonymous caller is recorded as
// pending migration first.
func (s *Service) BeginEmailSignIn(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.log.With("op", "session.Service.BeginEmailSignIn")
	if s.current != nil && s.current.User.IsAnonymous {
		if err := s.store.Set(ctx, pendingMigrationKey, []byte(s.current.User.ID)); err != nil {
			log.Warn("failed to record pending migration", "errMsg", err.Error())
		}
	}
	if err := s.remote.RequestMagicLink(ctx, strings.TrimSpace(email)); err != nil {
		return &AuthError{Op: "request magic link", Err: err}
	}
	log.Info("magic link requested")
	return nil
}

// CompleteEmailSignIn exchanges the link token for a session and re-runs
// EstablishSession, which performs the pending migration.
func (s *Service) CompleteEmailSignIn(ctx context.Context, linkToken string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.remote.VerifyMagicLink(ctx, strings.TrimSpace(linkToken))
	if err != nil {
		return "", &AuthError{Op: "verify magic link", Err: err}
	}
	if err := s.saveSession(ctx, sess); err != nil {
		return "", &AuthError{Op: "store session", Err: err}
	}
	return s.establish(ctx)
}

// SignOut drops the session and immediately starts a new anonymous one.
func (s *Service) SignOut(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.log.With("op", "session.Service.SignOut")
	if err := s.remote.Logout(ctx); err != nil {
		log.Warn("remote logout failed", "errMsg", err.Error())
	}
	s.remote.SetToken("")
	s.current = nil
	if err := s.clearSession(ctx); err != nil {
		log.Warn("failed to clear session", "errMsg", err.Error())
	}
	if err := s.store.Delete(ctx, pendingMigrationKey); err != nil {
		log.Warn("failed to clear pending migration", "errMsg", err.Error())
	}
	return s.signInAnonymously(ctx)
}

// Current is the last established session, nil before EstablishSession.
func (s *Service) Current() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	sess := *s.current
	return &sess
}

func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	if s.Current() == nil {
		return nil, ErrNoSession
	}
	return s.remote.CurrentUser(ctx)
}

func (s *Service) loadSession(ctx context.Context) (*models.Session, error) {
	raw, err := s.store.Get(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil || sess.AccessToken == "" {
		s.log.Warn("discarding unreadable stored session")
		return nil, nil
	}
	return &sess, nil
}

func (s *Service) saveSession(ctx context.Context, sess *models.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, sessionKey, raw)
}

func (s *Service) clearSession(ctx context.Context) error {
	return s.store.Delete(ctx, sessionKey)
}
