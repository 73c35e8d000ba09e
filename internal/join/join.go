// Package join drives accepting a list invite link.
package join

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"cinepwa/proj/internal/domain/models"
)

const (
	RedirectDelay = 1500 * time.Millisecond
	// MyListsPath is offered when joining fails.
	MyListsPath = "/lists"
)

var (
	ErrInvalidInvite = errors.New("join: not an invite link")
	ErrNameRequired  = errors.New("join: a display name is required")
	// ErrJoinFailed is the only error shown to the user when Confirm fails.
	ErrJoinFailed = errors.New("join: could not join the list, try again later")
)

type Invite struct {
	ListID string
	Role   models.Role
}

// ParseInvite reads /lists/{id}/join?role=... from a full URL or a bare path.
// Unknown roles become viewer.
func ParseInvite(raw string) (Invite, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Invite{}, fmt.Errorf("%w: %w", ErrInvalidInvite, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	n := len(parts)
	if n < 3 || parts[n-3] != "lists" || parts[n-1] != "join" || parts[n-2] == "" {
		return Invite{}, ErrInvalidInvite
	}
	listID, err := url.PathUnescape(parts[n-2])
	if err != nil {
		return Invite{}, fmt.Errorf("%w: %w", ErrInvalidInvite, err)
	}
	return Invite{ListID: listID, Role: models.ParseInviteRole(u.Query().Get("role"))}, nil
}

type Remote interface {
	GetListName(ctx context.Context, listID string) (string, error)
	JoinList(ctx context.Context, listID, memberName string, role models.Role) (*models.ListMember, error)
}

// Identity exposes the active session.
type Identity interface {
	Current() *models.Session
}

// Prompt is what the user sees before confirming.
type Prompt struct {
	Invite   Invite
	ListName string
	// ProposedName is the profile name of an authenticated user. It still
	// needs an explicit confirmation.
	ProposedName string
	// NeedsName is set when the user has to type a name.
	NeedsName bool
}

type Outcome struct {
	Member        *models.ListMember
	RedirectTo    string
	RedirectAfter time.Duration
}

type Flow struct {
	log      *slog.Logger
	remote   Remote
	identity Identity
	after    func(time.Duration) <-chan time.Time
}

func NewFlow(log *slog.Logger, remote Remote, identity Identity) *Flow {
	return &Flow{log: log, remote: remote, identity: identity, after: time.After}
}

// Prepare looks up the list name, which needs no membership.
func (f *Flow) Prepare(ctx context.Context, invite Invite) (*Prompt, error) {
	const op = "join.Flow.Prepare"
	log := f.log.With("op", op, "list_id", invite.ListID, "role", invite.Role)
	name, err := f.remote.GetListName(ctx, invite.ListID)
	if err != nil {
		log.Info("list preview failed", "errMsg", err.Error())
		return nil, err
	}
	prompt := &Prompt{Invite: invite, ListName: name, NeedsName: true}
	if sess := f.identity.Current(); sess != nil && !sess.User.IsAnonymous && strings.TrimSpace(sess.User.DisplayName) != "" {
		prompt.ProposedName = sess.User.DisplayName
		prompt.NeedsName = false
	}
	return prompt, nil
}

// Confirm joins with name, or the proposed name when name is empty. On
// failure the outcome points back to the user's lists.
func (f *Flow) Confirm(ctx context.Context, prompt *Prompt, name string) (*Outcome, error) {
	const op = "join.Flow.Confirm"
	log := f.log.With("op", op, "list_id", prompt.Invite.ListID, "role", prompt.Invite.Role)
	name = strings.TrimSpace(name)
	if name == "" {
		name = prompt.ProposedName
	}
	if name == "" {
		return nil, ErrNameRequired
	}
	member, err := f.remote.JoinList(ctx, prompt.Invite.ListID, name, prompt.Invite.Role)
	if err != nil {
		log.Error("join failed", "errMsg", err.Error())
		return &Outcome{RedirectTo: MyListsPath}, fmt.Errorf("%w: %w", ErrJoinFailed, err)
	}
	log.Info("joined list", "member_role", member.Role)
	return &Outcome{
		Member:        member,
		RedirectTo:    "/lists/" + url.PathEscape(prompt.Invite.ListID),
		RedirectAfter: RedirectDelay,
	}, nil
}

// Follow waits out the redirect delay and returns the target path.
func (f *Flow) Follow(ctx context.Context, outcome *Outcome) (string, error) {
	if outcome.RedirectAfter <= 0 {
		return outcome.RedirectTo, nil
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-f.after(outcome.RedirectAfter):
		return outcome.RedirectTo, nil
	}
}
