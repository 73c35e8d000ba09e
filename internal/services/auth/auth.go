package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/mails"
	"cinepwa/proj/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type UsersStorage interface {
	Insert(ctx context.Context, email string, isAnonymous bool) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateDisplayName(ctx context.Context, id, name string) (*models.User, error)
}

type TokensStorage interface {
	InsertMagicLink(ctx context.Context, hash []byte, link models.MagicLink) error
	ConsumeMagicLink(ctx context.Context, hash []byte) (*models.MagicLink, error)
	InsertMigrationGrant(ctx context.Context, oldUserID, newUserID string, expiresAt time.Time) error
	RevokeSession(ctx context.Context, jti string, expiresAt time.Time) error
	IsSessionRevoked(ctx context.Context, jti string) (bool, error)
}

type TaskExecutor interface {
	Add(name string, fn func(ctx context.Context) error) error
}

type Options struct {
	Secret       string
	SessionTTL   time.Duration
	MagicLinkTTL time.Duration
	// VerifyURL is where the e-mailed link points, the token is appended as ?token=.
	VerifyURL string
}

type AuthService struct {
	log          *slog.Logger
	users        UsersStorage
	tokens       TokensStorage
	mailer       mails.Sender
	taskExecutor TaskExecutor
	opts         Options
	now          func() time.Time
}

func New(
	log *slog.Logger,
	users UsersStorage,
	tokens TokensStorage,
	mailer mails.Sender,
	taskExecutor TaskExecutor,
	opts Options,
) *AuthService {
	return &AuthService{
		log:          log,
		users:        users,
		tokens:       tokens,
		mailer:       mailer,
		taskExecutor: taskExecutor,
		opts:         opts,
		now:          time.Now,
	}
}

type SessionClaims struct {
	UserID    string `json:"uid"`
	Anonymous bool   `json:"anon"`
	jwt.RegisteredClaims
}

func (a *AuthService) issueSession(user *models.User) (*models.Session, error) {
	expiresAt := a.now().Add(a.opts.SessionTTL)
	claims := SessionClaims{
		UserID:    user.ID,
		Anonymous: user.IsAnonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(a.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.opts.Secret))
	if err != nil {
		return nil, err
	}
	return &models.Session{AccessToken: signed, ExpiresAt: expiresAt, User: *user}, nil
}

func (a *AuthService) SignInAnonymously(ctx context.Context) (*models.Session, error) {
	const op = "auth.AuthService.SignInAnonymously"
	log := a.log.With("op", op)
	user, err := a.users.Insert(ctx, "", true)
	if err != nil {
		log.Error("failed to create anonymous user", "errMsg", err.Error())
		return nil, err
	}
	log.Info("anonymous user created", "user_id", user.ID)
	return a.issueSession(user)
}

func hashToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}

func newLinkToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return "", invalidData(fmt.Sprintf("invalid email %q", email))
	}
	return strings.ToLower(addr.Address), nil
}

// RequestMagicLink stores a single-use sign-in link and mails it in the background.
func (a *AuthService) RequestMagicLink(ctx context.Context, email string) error {
	const op = "auth.AuthService.RequestMagicLink"
	log := a.log.With("op", op, "email", email)
	email, err := normalizeEmail(email)
	if err != nil {
		log.Info("rejected magic link request", "errMsg", err.Error())
		return err
	}
	token, err := newLinkToken()
	if err != nil {
		return err
	}
	pending := models.MagicLink{Email: email, ExpiresAt: a.now().Add(a.opts.MagicLinkTTL)}
	if p, ok := PrincipalFromContext(ctx); ok && p.User.IsAnonymous {
		pending.RequestedBy = p.User.ID
	}
	if err := a.tokens.InsertMagicLink(ctx, hashToken(token), pending); err != nil {
		log.Error("failed to store magic link", "errMsg", err.Error())
		return err
	}
	link, err := url.Parse(a.opts.VerifyURL)
	if err != nil {
		return err
	}
	q := link.Query()
	q.Set("token", token)
	link.RawQuery = q.Encode()
	data := mails.MagicLinkData{Link: link.String(), ExpiresIn: a.opts.MagicLinkTTL}
	err = a.taskExecutor.Add("magic_link_email", func(ctx context.Context) error {
		return a.mailer.Send(ctx, email, mails.MagicLinkTemplate, data)
	})
	if err != nil {
		log.Error("failed to queue magic link email", "errMsg", err.Error())
		return err
	}
	log.Info("magic link issued")
	return nil
}

// VerifyMagicLink consumes the link token and opens a session for the user
// owning its e-mail, creating the user on first sign-in. When the link was
// requested from an anonymous session, the new user is granted the right to
// migrate that anonymous user's data.
func (a *AuthService) VerifyMagicLink(ctx context.Context, token string) (*models.Session, error) {
	const op = "auth.AuthService.VerifyMagicLink"
	log := a.log.With("op", op)
	pending, err := a.tokens.ConsumeMagicLink(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("unknown or expired magic link")
			return nil, ErrInvalidLink
		}
		log.Error("failed to consume magic link", "errMsg", err.Error())
		return nil, err
	}
	email := pending.Email
	log = log.With("email", email)
	user, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		user, err = a.users.Insert(ctx, email, false)
		if errors.Is(err, storage.ErrConflict) {
			user, err = a.users.GetByEmail(ctx, email)
		}
	}
	if err != nil {
		log.Error("failed to resolve user", "errMsg", err.Error())
		return nil, err
	}
	if pending.RequestedBy != "" && pending.RequestedBy != user.ID {
		expiresAt := a.now().Add(a.opts.MagicLinkTTL)
		if err := a.tokens.InsertMigrationGrant(ctx, pending.RequestedBy, user.ID, expiresAt); err != nil {
			// The sign-in still succeeds, the anonymous data just stays where it is.
			log.Error("failed to grant data migration", "errMsg", err.Error(), "old_user_id", pending.RequestedBy)
		}
	}
	log.Info("magic link verified", "user_id", user.ID)
	return a.issueSession(user)
}

// Authenticate validates an access token and loads its user.
func (a *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	const op = "auth.AuthService.Authenticate"
	log := a.log.With("op", op)
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return []byte(a.opts.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(a.now))
	if err != nil {
		log.Debug("token rejected", "errMsg", err.Error())
		return nil, ErrUnauthorized
	}
	revoked, err := a.tokens.IsSessionRevoked(ctx, claims.ID)
	if err != nil {
		log.Error("failed to check session revocation", "errMsg", err.Error())
		return nil, err
	}
	if revoked {
		return nil, ErrUnauthorized
	}
	user, err := a.users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("token of unknown user", "user_id", claims.UserID)
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return &Principal{User: *user, SessionID: claims.ID, ExpiresAt: claims.ExpiresAt.Unix()}, nil
}

func (a *AuthService) Logout(ctx context.Context) error {
	const op = "auth.AuthService.Logout"
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	log := a.log.With("op", op, "user_id", p.User.ID)
	if err := a.tokens.RevokeSession(ctx, p.SessionID, time.Unix(p.ExpiresAt, 0)); err != nil {
		log.Error("failed to revoke session", "errMsg", err.Error())
		return err
	}
	log.Info("session revoked")
	return nil
}

func (a *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	const op = "auth.AuthService.CurrentUser"
	userID, err := CallerID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := a.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.log.Info("user not found", "op", op, "user_id", userID)
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (a *AuthService) UpdateDisplayName(ctx context.Context, name string) (*models.User, error) {
	const op = "auth.AuthService.UpdateDisplayName"
	userID, err := CallerID(ctx)
	if err != nil {
		return nil, err
	}
	log := a.log.With("op", op, "user_id", userID)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidData("display name must not be empty")
	}
	user, err := a.users.UpdateDisplayName(ctx, userID, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		log.Error("failed to update display name", "errMsg", err.Error())
		return nil, err
	}
	return user, nil
}
