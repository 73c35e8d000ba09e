package auth

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"cinepwa/proj/internal/lib/logger"
	"cinepwa/proj/internal/mails"
	"cinepwa/proj/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to   string
	tmpl string
	data any
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, recipient, tmplName string, tmplData any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{recipient, tmplName, tmplData})
	return nil
}

func (m *fakeMailer) lastLinkToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	data := m.sent[len(m.sent)-1].data.(mails.MagicLinkData)
	link, err := url.Parse(data.Link)
	require.NoError(t, err)
	return link.Query().Get("token")
}

type inlineExecutor struct{}

func (inlineExecutor) Add(_ string, fn func(ctx context.Context) error) error {
	return fn(context.Background())
}

func newTestService(t *testing.T) (*AuthService, *fakeMailer, *memory.Models) {
	t.Helper()
	store := memory.New()
	mailer := &fakeMailer{}
	svc := New(logger.Discard(), store.Users, store.Tokens, mailer, inlineExecutor{}, Options{
		Secret:       "test-secret",
		SessionTTL:   time.Hour,
		MagicLinkTTL: time.Hour,
		VerifyURL:    "http://localhost:5173/auth/verify",
	})
	return svc, mailer, store
}

func TestAnonymousSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	session, err := svc.SignInAnonymously(ctx)
	require.NoError(t, err)
	assert.True(t, session.User.IsAnonymous)

	p, err := svc.Authenticate(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, p.User.ID)
}

func TestMagicLinkFlow(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.RequestMagicLink(ctx, " Ana@Example.com "))
	assert.Equal(t, "ana@example.com", mailer.sent[0].to)
	assert.Equal(t, mails.MagicLinkTemplate, mailer.sent[0].tmpl)

	token := mailer.lastLinkToken(t)
	session, err := svc.VerifyMagicLink(ctx, token)
	require.NoError(t, err)
	assert.False(t, session.User.IsAnonymous)
	assert.Equal(t, "ana@example.com", session.User.Email)

	_, err = svc.VerifyMagicLink(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidLink)

	require.NoError(t, svc.RequestMagicLink(ctx, "ana@example.com"))
	again, err := svc.VerifyMagicLink(ctx, mailer.lastLinkToken(t))
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)
}

func TestMagicLinkFromAnonymousSessionGrantsMigration(t *testing.T) {
	svc, mailer, store := newTestService(t)
	ctx := context.Background()
	anon, err := svc.SignInAnonymously(ctx)
	require.NoError(t, err)
	stranger, err := svc.SignInAnonymously(ctx)
	require.NoError(t, err)

	anonCtx := ContextWithPrincipal(ctx, &Principal{User: anon.User})
	require.NoError(t, svc.RequestMagicLink(anonCtx, "ana@example.com"))
	session, err := svc.VerifyMagicLink(ctx, mailer.lastLinkToken(t))
	require.NoError(t, err)

	ok, err := store.Tokens.HasMigrationGrant(ctx, anon.User.ID, session.User.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Tokens.HasMigrationGrant(ctx, stranger.User.ID, session.User.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Links requested without an anonymous session grant nothing.
	require.NoError(t, svc.RequestMagicLink(ContextWithPrincipal(ctx, &Principal{User: session.User}), "bo@example.com"))
	bo, err := svc.VerifyMagicLink(ctx, mailer.lastLinkToken(t))
	require.NoError(t, err)
	ok, err = store.Tokens.HasMigrationGrant(ctx, session.User.ID, bo.User.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequestMagicLinkInvalidEmail(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	err := svc.RequestMagicLink(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.Empty(t, mailer.sent)
}

func TestAuthenticateRejects(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	other := New(logger.Discard(), memory.New().Users, memory.New().Tokens, &fakeMailer{}, inlineExecutor{}, Options{Secret: "other", SessionTTL: time.Hour})
	session, err := svc.SignInAnonymously(ctx)
	require.NoError(t, err)
	_, err = other.Authenticate(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Authenticate(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	session, err := svc.SignInAnonymously(ctx)
	require.NoError(t, err)
	p, err := svc.Authenticate(ctx, session.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ContextWithPrincipal(ctx, p)))
	_, err = svc.Authenticate(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateDisplayName(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	session, err := svc.SignInAnonymously(ctx)
	require.NoError(t, err)
	authed := ContextWithPrincipal(ctx, &Principal{User: session.User})

	_, err = svc.UpdateDisplayName(authed, "   ")
	assert.ErrorIs(t, err, ErrInvalidData)
	user, err := svc.UpdateDisplayName(authed, "Ana")
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.DisplayName)

	current, err := svc.CurrentUser(authed)
	require.NoError(t, err)
	assert.Equal(t, "Ana", current.DisplayName)

	_, err = svc.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
