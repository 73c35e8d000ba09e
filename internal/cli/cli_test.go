package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"cinepwa/proj/internal/cli/appctx"
	"cinepwa/proj/internal/clients/api/apitest"
	"cinepwa/proj/internal/config"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/join"
	"cinepwa/proj/internal/localstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// device is one client install: its own local store against a shared backend.
type device struct {
	backend *apitest.Backend
	store   *localstore.MemoryStore
}

func newDevice(backend *apitest.Backend) *device {
	return &device{backend: backend, store: localstore.NewMemory()}
}

func (d *device) dial(*config.ClientConfig) (*appctx.Deps, error) {
	return &appctx.Deps{Store: d.store, Remote: d.backend}, nil
}

func (d *device) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd(d.dial)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (d *device) mustJSON(t *testing.T, dst any, args ...string) {
	t.Helper()
	stdout, stderr, err := d.run(t, append(args, "-o", "json")...)
	require.NoError(t, err, stderr)
	require.NoError(t, json.Unmarshal([]byte(stdout), dst), stdout)
}

func TestWhoamiKeepsIdentity(t *testing.T) {
	d := newDevice(apitest.New())
	var first, second models.User
	d.mustJSON(t, &first, "whoami")
	d.mustJSON(t, &second, "whoami")
	assert.True(t, first.IsAnonymous)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, d.backend.Calls("SignInAnonymously"))

	var renamed models.User
	d.mustJSON(t, &renamed, "whoami", "--set-name", "Ana")
	assert.Equal(t, "Ana", renamed.DisplayName)
}

func TestWatchlistCommands(t *testing.T) {
	d := newDevice(apitest.New())
	_, stderr, err := d.run(t, "watchlist", "add", "603")
	require.NoError(t, err, stderr)
	_, stderr, err = d.run(t, "watchlist", "add", "1399", "--type", "tv")
	require.NoError(t, err, stderr)
	_, stderr, err = d.run(t, "watchlist", "add", "603")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Already in your watchlist")
	_, _, err = d.run(t, "watched", "add", "603")
	require.NoError(t, err)

	var st struct {
		MyList     []models.ContentItem `json:"my_list"`
		WatchedIDs []int                `json:"watched_ids"`
	}
	d.mustJSON(t, &st, "watchlist", "ls")
	require.Len(t, st.MyList, 2)
	assert.ElementsMatch(t, []string{"Movie 603", "Show 1399"}, []string{st.MyList[0].DisplayTitle(), st.MyList[1].DisplayTitle()})
	assert.Equal(t, []int{603}, st.WatchedIDs)

	table, _, err := d.run(t, "wl", "ls")
	require.NoError(t, err)
	assert.Contains(t, table, "Movie 603")
	assert.Contains(t, table, "WATCHED")

	_, _, err = d.run(t, "watchlist", "rm", "1399")
	require.NoError(t, err)
	_, _, err = d.run(t, "watched", "rm", "603")
	require.NoError(t, err)
	var summary map[string]int
	d.mustJSON(t, &summary, "sync")
	assert.Equal(t, map[string]int{"watchlist": 1, "watched": 0}, summary)

	var share map[string]string
	d.mustJSON(t, &share, "watchlist", "share")
	assert.True(t, strings.HasPrefix(share["url"], "http://localhost:5173/shared?data="), share["url"])
}

func TestWatchlistRejectsBadInput(t *testing.T) {
	d := newDevice(apitest.New())
	_, _, err := d.run(t, "watchlist", "add", "abc")
	assert.ErrorContains(t, err, "invalid title id")
	_, _, err = d.run(t, "watchlist", "add", "1", "--type", "anime")
	assert.ErrorContains(t, err, "invalid media type")
	_, _, err = d.run(t, "watchlist", "ls", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestFailedWriteIsReported(t *testing.T) {
	d := newDevice(apitest.New())
	_, _, err := d.run(t, "whoami")
	require.NoError(t, err)
	d.backend.FailNext("AddToWatchlist", errors.New("db down"))
	_, stderr, err := d.run(t, "watchlist", "add", "42")
	require.NoError(t, err)
	assert.Contains(t, stderr, "was not saved remotely")
}

func TestEmailSignInMigratesAnonymousData(t *testing.T) {
	d := newDevice(apitest.New())
	var anon models.User
	d.mustJSON(t, &anon, "whoami")
	_, _, err := d.run(t, "watchlist", "add", "603")
	require.NoError(t, err)

	_, stderr, err := d.run(t, "login", "ana@example.com")
	require.NoError(t, err, stderr)
	token := d.backend.LastLinkToken()
	require.NotEmpty(t, token)
	_, stderr, err = d.run(t, "verify", "http://localhost:5173/auth/verify?token="+token)
	require.NoError(t, err, stderr)

	var user models.User
	d.mustJSON(t, &user, "whoami")
	assert.False(t, user.IsAnonymous)
	assert.NotEqual(t, anon.ID, user.ID)
	assert.Equal(t, "ana", user.DisplayName)

	var st struct {
		MyList []models.ContentItem `json:"my_list"`
	}
	d.mustJSON(t, &st, "watchlist", "ls")
	require.Len(t, st.MyList, 1)
	assert.Equal(t, 603, st.MyList[0].ID)

	_, _, err = d.run(t, "logout")
	require.NoError(t, err)
	var after models.User
	d.mustJSON(t, &after, "whoami")
	assert.True(t, after.IsAnonymous)
	d.mustJSON(t, &st, "watchlist", "ls")
	assert.Empty(t, st.MyList)
}

func TestSharedListScenario(t *testing.T) {
	backend := apitest.New()
	owner := newDevice(backend)
	guest := newDevice(backend)

	var list models.List
	owner.mustJSON(t, &list, "lists", "create", "Weekend Picks")
	assert.Equal(t, models.RoleOwner, list.Role)
	var item models.ListItem
	owner.mustJSON(t, &item, "lists", "add", list.ID, "27205")

	var share map[string]string
	owner.mustJSON(t, &share, "lists", "share", list.ID, "--role", "editor")
	invite, err := join.ParseInvite(share["url"])
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, invite.Role)

	_, _, err = guest.run(t, "lists", "join", share["url"])
	assert.ErrorIs(t, err, join.ErrNameRequired)
	_, stderr, err := guest.run(t, "lists", "join", share["url"], "--name", "Bia")
	require.NoError(t, err, stderr)
	assert.Contains(t, stderr, "Weekend Picks")

	var guestLists []models.List
	guest.mustJSON(t, &guestLists, "lists", "ls")
	require.Len(t, guestLists, 1)
	assert.Equal(t, models.RoleEditor, guestLists[0].Role)

	var added models.ListItem
	guest.mustJSON(t, &added, "lists", "add", list.ID, "1399", "--type", "tv")

	var details models.ListDetails
	owner.mustJSON(t, &details, "lists", "show", list.ID)
	require.Len(t, details.Items, 2)
	require.Len(t, details.Members, 2)
	titles := []string{}
	for _, it := range details.Items {
		require.NotNil(t, it.Content)
		titles = append(titles, it.Content.DisplayTitle())
	}
	assert.ElementsMatch(t, []string{"Movie 27205", "Show 1399"}, titles)

	table, _, err := owner.run(t, "lists", "show", list.ID)
	require.NoError(t, err)
	assert.Contains(t, table, "Weekend Picks (owner)")
	assert.Contains(t, table, "Bia")

	_, _, err = guest.run(t, "lists", "rename", list.ID, "Mine now")
	assert.Error(t, err)
	_, _, err = guest.run(t, "lists", "remove-item", added.ID)
	require.NoError(t, err)
	_, _, err = guest.run(t, "lists", "leave", list.ID)
	require.NoError(t, err)
	guest.mustJSON(t, &guestLists, "lists", "ls")
	assert.Empty(t, guestLists)

	var renamed models.List
	owner.mustJSON(t, &renamed, "lists", "rename", list.ID, "Sunday Picks")
	assert.Equal(t, "Sunday Picks", renamed.Name)
	_, _, err = owner.run(t, "lists", "rm", list.ID)
	require.NoError(t, err)
	_, _, err = owner.run(t, "lists", "show", list.ID)
	assert.Error(t, err)
}

func TestJoinFailureOffersLists(t *testing.T) {
	backend := apitest.New()
	owner := newDevice(backend)
	guest := newDevice(backend)
	var list models.List
	owner.mustJSON(t, &list, "lists", "create", "Weekend Picks")
	_, _, err := guest.run(t, "whoami")
	require.NoError(t, err)

	backend.FailNext("JoinList", errors.New("db down"))
	_, stderr, err := guest.run(t, "lists", "join", "/lists/"+list.ID+"/join?role=viewer", "--name", "Bia")
	assert.ErrorIs(t, err, join.ErrJoinFailed)
	assert.Contains(t, stderr, "cinepwa lists ls")
}

func TestYAMLOutputUsesJSONKeys(t *testing.T) {
	d := newDevice(apitest.New())
	stdout, _, err := d.run(t, "search", "matrix", "-o", "yaml")
	require.NoError(t, err)
	var items []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "matrix", items[0]["title"])
	assert.Equal(t, "movie", items[0]["media_type"])
}
