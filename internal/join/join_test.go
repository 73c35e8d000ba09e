package join

import (
	"context"
	"errors"
	"testing"
	"time"

	"cinepwa/proj/internal/clients/api"
	"cinepwa/proj/internal/clients/api/apitest"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/lib/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInvite(t *testing.T) {
	cases := []struct {
		raw  string
		want Invite
		err  bool
	}{
		{raw: "http://localhost:5173/lists/abc/join?role=editor", want: Invite{ListID: "abc", Role: models.RoleEditor}},
		{raw: "/lists/abc/join?role=viewer", want: Invite{ListID: "abc", Role: models.RoleViewer}},
		{raw: "/lists/abc/join?role=admin", want: Invite{ListID: "abc", Role: models.RoleViewer}},
		{raw: "/lists/abc/join?role=owner", want: Invite{ListID: "abc", Role: models.RoleViewer}},
		{raw: "/lists/abc/join", want: Invite{ListID: "abc", Role: models.RoleViewer}},
		{raw: "/lists/abc", err: true},
		{raw: "/shared?data=xx", err: true},
		{raw: "/lists//join", err: true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseInvite(tc.raw)
			if tc.err {
				assert.ErrorIs(t, err, ErrInvalidInvite)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

type fixedIdentity struct {
	session *models.Session
}

func (f fixedIdentity) Current() *models.Session {
	return f.session
}

// setup returns a backend with a list owned by someone else and the guest's session.
func setup(t *testing.T) (*apitest.Backend, *models.List, *models.Session) {
	t.Helper()
	ctx := context.Background()
	backend := apitest.New()
	owner, err := backend.SignInAnonymously(ctx)
	require.NoError(t, err)
	backend.SetToken(owner.AccessToken)
	list, err := backend.CreateList(ctx, "Weekend Picks")
	require.NoError(t, err)
	backend.SetToken("")
	guest, err := backend.SignInAnonymously(ctx)
	require.NoError(t, err)
	backend.SetToken(guest.AccessToken)
	return backend, list, guest
}

func TestFlowAnonymousGuest(t *testing.T) {
	ctx := context.Background()
	backend, list, guest := setup(t)
	flow := NewFlow(logger.Discard(), backend, fixedIdentity{guest})
	flow.after = func(d time.Duration) <-chan time.Time {
		assert.Equal(t, RedirectDelay, d)
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}

	invite, err := ParseInvite("http://localhost:5173/lists/" + list.ID + "/join?role=editor")
	require.NoError(t, err)
	prompt, err := flow.Prepare(ctx, invite)
	require.NoError(t, err)
	assert.Equal(t, "Weekend Picks", prompt.ListName)
	assert.True(t, prompt.NeedsName)

	_, err = flow.Confirm(ctx, prompt, "  ")
	assert.ErrorIs(t, err, ErrNameRequired)

	outcome, err := flow.Confirm(ctx, prompt, "Bia")
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, outcome.Member.Role)
	assert.Equal(t, "Bia", outcome.Member.MemberName)
	path, err := flow.Follow(ctx, outcome)
	require.NoError(t, err)
	assert.Equal(t, "/lists/"+list.ID, path)
}

func TestFlowProposesProfileName(t *testing.T) {
	ctx := context.Background()
	backend, list, guest := setup(t)
	guest.User.IsAnonymous = false
	guest.User.DisplayName = "Ana"
	flow := NewFlow(logger.Discard(), backend, fixedIdentity{guest})

	prompt, err := flow.Prepare(ctx, Invite{ListID: list.ID, Role: models.RoleViewer})
	require.NoError(t, err)
	assert.False(t, prompt.NeedsName)
	assert.Equal(t, "Ana", prompt.ProposedName)

	outcome, err := flow.Confirm(ctx, prompt, "")
	require.NoError(t, err)
	assert.Equal(t, "Ana", outcome.Member.MemberName)
	assert.Equal(t, models.RoleViewer, outcome.Member.Role)
}

func TestFlowUnknownList(t *testing.T) {
	backend, _, guest := setup(t)
	flow := NewFlow(logger.Discard(), backend, fixedIdentity{guest})
	_, err := flow.Prepare(context.Background(), Invite{ListID: "missing", Role: models.RoleViewer})
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestFlowJoinFailure(t *testing.T) {
	ctx := context.Background()
	backend, list, guest := setup(t)
	flow := NewFlow(logger.Discard(), backend, fixedIdentity{guest})
	prompt, err := flow.Prepare(ctx, Invite{ListID: list.ID, Role: models.RoleViewer})
	require.NoError(t, err)

	backend.FailNext("JoinList", errors.New("db down"))
	outcome, err := flow.Confirm(ctx, prompt, "Bia")
	assert.ErrorIs(t, err, ErrJoinFailed)
	require.NotNil(t, outcome)
	assert.Equal(t, MyListsPath, outcome.RedirectTo)
	path, err := flow.Follow(ctx, outcome)
	require.NoError(t, err)
	assert.Equal(t, MyListsPath, path)
}

func TestFollowHonoursCancellation(t *testing.T) {
	flow := NewFlow(logger.Discard(), nil, fixedIdentity{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := flow.Follow(ctx, &Outcome{RedirectTo: "/lists/x", RedirectAfter: time.Hour})
	assert.ErrorIs(t, err, context.Canceled)
}
