package lists

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"

	"cinepwa/proj/internal/domain/filters"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/lib/logger"
	"cinepwa/proj/internal/services/auth"
	"cinepwa/proj/internal/storage/memory"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://localhost:5173"

func newTestService() (*ListService, *memory.Models) {
	store := memory.New()
	svc := New(logger.Discard(), Storage{
		Lists:   store.Lists,
		Members: store.Members,
		Items:   store.Items,
		Names:   store.Procedures,
		Users:   store.Users,
	}, baseURL+"/")
	return svc, store
}

func newCaller(t *testing.T, store *memory.Models, email string) context.Context {
	t.Helper()
	user, err := store.Users.Insert(context.Background(), email, email == "")
	require.NoError(t, err)
	return auth.ContextWithPrincipal(context.Background(), &auth.Principal{User: *user})
}

func callerID(ctx context.Context) string {
	id, _ := auth.CallerID(ctx)
	return id
}

func TestWeekendPicksScenario(t *testing.T) {
	svc, store := newTestService()
	ctx := newCaller(t, store, "ana@example.com")

	list, err := svc.CreateList(ctx, "Weekend Picks")
	require.NoError(t, err)
	item, err := svc.AddItem(ctx, list.ID, models.ContentRef{ID: 603, MediaType: models.MediaMovie})
	require.NoError(t, err)

	containing, err := svc.ListsContainingContent(ctx, 603, models.MediaMovie)
	require.NoError(t, err)
	assert.Equal(t, item.ID, containing[list.ID])

	require.NoError(t, svc.RemoveItem(ctx, item.ID))
	containing, err = svc.ListsContainingContent(ctx, 603, models.MediaMovie)
	require.NoError(t, err)
	assert.NotContains(t, containing, list.ID)
}

func TestCreateListBackfillsOwnerName(t *testing.T) {
	svc, store := newTestService()
	ctx := newCaller(t, store, "ana.souza@example.com")
	list, err := svc.CreateList(ctx, "Noir")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, list.Role)

	details, err := svc.GetListDetails(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, details.Members, 1)
	assert.Equal(t, "ana.souza", details.Members[0].MemberName)
	assert.Equal(t, models.RoleOwner, details.List.Role)
}

func TestCreateListBackfillFailureIgnored(t *testing.T) {
	svc, store := newTestService()
	ctx := newCaller(t, store, "ana@example.com")
	store.DB.FailNext("list_members.set_name", nil)
	list, err := svc.CreateList(ctx, "Noir")
	require.NoError(t, err)
	assert.NotEmpty(t, list.ID)
}

func TestDuplicateItemsAllowed(t *testing.T) {
	svc, store := newTestService()
	ctx := newCaller(t, store, "")
	list, err := svc.CreateList(ctx, "Dupes")
	require.NoError(t, err)
	ref := models.ContentRef{ID: 1, MediaType: models.MediaTV}
	first, err := svc.AddItem(ctx, list.ID, ref)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, list.ID, ref)
	require.NoError(t, err)

	details, err := svc.GetListDetails(ctx, list.ID)
	require.NoError(t, err)
	assert.Len(t, details.Items, 2)
	containing, err := svc.ListsContainingContent(ctx, 1, models.MediaTV)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{list.ID: first.ID}, containing)
}

func TestGetListDetailsFailsClosed(t *testing.T) {
	svc, store := newTestService()
	owner := newCaller(t, store, "")
	stranger := newCaller(t, store, "")
	list, err := svc.CreateList(owner, "Private")
	require.NoError(t, err)

	_, err = svc.GetListDetails(stranger, list.ID)
	assert.ErrorIs(t, err, ErrNotMember)
	_, err = svc.GetListDetails(owner, "missing")
	assert.ErrorIs(t, err, ErrListNotFound)
	_, err = svc.GetListDetails(context.Background(), list.ID)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	containing, err := svc.ListsContainingContent(stranger, 1, models.MediaMovie)
	require.NoError(t, err)
	assert.Empty(t, containing)
}

func TestMemberRole(t *testing.T) {
	svc, store := newTestService()
	owner := newCaller(t, store, "")
	guest := newCaller(t, store, "")
	stranger := newCaller(t, store, "")
	list, err := svc.CreateList(owner, "Shared")
	require.NoError(t, err)
	_, err = svc.JoinList(guest, list.ID, "G", "editor")
	require.NoError(t, err)

	role, err := svc.MemberRole(owner, list.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, role)
	role, err = svc.MemberRole(guest, list.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, role)

	_, err = svc.MemberRole(stranger, list.ID)
	assert.ErrorIs(t, err, ErrNotMember)
	_, err = svc.MemberRole(owner, "missing")
	assert.ErrorIs(t, err, ErrListNotFound)
	_, err = svc.MemberRole(context.Background(), list.ID)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestRolePermissions(t *testing.T) {
	svc, store := newTestService()
	owner := newCaller(t, store, "")
	editor := newCaller(t, store, "")
	viewer := newCaller(t, store, "")
	list, err := svc.CreateList(owner, "Shared")
	require.NoError(t, err)
	_, err = svc.JoinList(editor, list.ID, "Ed", "editor")
	require.NoError(t, err)
	_, err = svc.JoinList(viewer, list.ID, "Vi", "viewer")
	require.NoError(t, err)

	ref := models.ContentRef{ID: 27205, MediaType: models.MediaMovie}
	item, err := svc.AddItem(editor, list.ID, ref)
	require.NoError(t, err)
	_, err = svc.AddItem(viewer, list.ID, ref)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.RemoveItem(viewer, item.ID), ErrForbidden)
	assert.ErrorIs(t, svc.RemoveItem(editor, "missing"), ErrItemNotFound)

	_, err = svc.RenameList(editor, list.ID, "Mine now")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.DeleteList(editor, list.ID), ErrForbidden)
	renamed, err := svc.RenameList(owner, list.ID, "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Name)

	assert.ErrorIs(t, svc.RemoveMember(editor, list.ID, callerID(viewer)), ErrForbidden)
	assert.ErrorIs(t, svc.RemoveMember(owner, list.ID, callerID(owner)), ErrForbidden)
	require.NoError(t, svc.RemoveMember(viewer, list.ID, callerID(viewer)))
	require.NoError(t, svc.RemoveMember(owner, list.ID, callerID(editor)))
	assert.ErrorIs(t, svc.RemoveMember(owner, list.ID, callerID(editor)), ErrMemberNotFound)

	require.NoError(t, svc.DeleteList(owner, list.ID))
	lists, err := svc.ListLists(owner, filters.ForLists(""))
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestJoinUnknownList(t *testing.T) {
	svc, store := newTestService()
	ctx := newCaller(t, store, "")
	_, err := svc.JoinList(ctx, "missing", "Ana", "viewer")
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestJoinDefaultsMemberNameToProfile(t *testing.T) {
	svc, store := newTestService()
	owner := newCaller(t, store, "")
	guest := newCaller(t, store, "bia@example.com")
	list, err := svc.CreateList(owner, "Horror")
	require.NoError(t, err)
	member, err := svc.JoinList(guest, list.ID, "  ", "viewer")
	require.NoError(t, err)
	assert.Equal(t, "bia", member.MemberName)
}

func TestGetListName(t *testing.T) {
	svc, store := newTestService()
	owner := newCaller(t, store, "")
	list, err := svc.CreateList(owner, "Cult classics")
	require.NoError(t, err)
	name, err := svc.GetListName(context.Background(), list.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cult classics", name)
	_, err = svc.GetListName(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestListListsAnnotatesRole(t *testing.T) {
	svc, store := newTestService()
	owner := newCaller(t, store, "")
	guest := newCaller(t, store, "")
	mine, err := svc.CreateList(owner, "Mine")
	require.NoError(t, err)
	theirs, err := svc.CreateList(guest, "Theirs")
	require.NoError(t, err)
	_, err = svc.JoinList(owner, theirs.ID, "Owner", "editor")
	require.NoError(t, err)

	lists, err := svc.ListLists(owner, filters.ForLists("name"))
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, mine.ID, lists[0].ID)
	assert.Equal(t, models.RoleOwner, lists[0].Role)
	assert.Equal(t, models.RoleEditor, lists[1].Role)
}

func TestConcurrentJoinsKeepOneMembership(t *testing.T) {
	svc, store := newTestService()
	owner := newCaller(t, store, "")
	guest := newCaller(t, store, "")
	list, err := svc.CreateList(owner, "Race")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, role := range []string{"editor", "viewer", "editor", "viewer"} {
		wg.Add(1)
		go func(role string) {
			defer wg.Done()
			_, err := svc.JoinList(guest, list.ID, "Guest", role)
			assert.NoError(t, err)
		}(role)
	}
	wg.Wait()
	members, err := store.Members.List(context.Background(), list.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestListProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)
	roles := gen.OneConstOf("editor", "viewer", "owner", "admin", "", "EDITOR")

	properties.Property("second join keeps the first role", prop.ForAll(
		func(first, second string) bool {
			svc, store := newTestService()
			owner := newCaller(t, store, "")
			guest := newCaller(t, store, "")
			list, err := svc.CreateList(owner, "L")
			if err != nil {
				return false
			}
			if _, err := svc.JoinList(guest, list.ID, "G", first); err != nil {
				return false
			}
			member, err := svc.JoinList(guest, list.ID, "G2", second)
			if err != nil {
				return false
			}
			members, _ := store.Members.List(context.Background(), list.ID)
			return len(members) == 2 && member.Role == models.ParseInviteRole(first) && member.MemberName == "G"
		},
		roles, roles,
	))

	properties.Property("a new list has exactly one owner, its creator", prop.ForAll(
		func(name string) bool {
			svc, store := newTestService()
			ctx := newCaller(t, store, "")
			list, err := svc.CreateList(ctx, name)
			if err != nil {
				return false
			}
			members, _ := store.Members.List(context.Background(), list.ID)
			return len(members) == 1 && members[0].Role == models.RoleOwner && members[0].UserID == callerID(ctx)
		},
		gen.AlphaString(),
	))

	properties.Property("share links differ only by role and grant that role", prop.ForAll(
		func(role string) bool {
			svc, store := newTestService()
			owner := newCaller(t, store, "")
			guest := newCaller(t, store, "")
			list, err := svc.CreateList(owner, "L")
			if err != nil {
				return false
			}
			editorURL, viewerURL := svc.ShareURL(list.ID, "editor"), svc.ShareURL(list.ID, "viewer")
			if strings.TrimSuffix(editorURL, "editor") != strings.TrimSuffix(viewerURL, "viewer") {
				return false
			}
			link, err := url.Parse(svc.ShareURL(list.ID, role))
			if err != nil || link.Path != "/lists/"+list.ID+"/join" {
				return false
			}
			member, err := svc.JoinList(guest, list.ID, "G", link.Query().Get("role"))
			if err != nil {
				return false
			}
			want := models.RoleViewer
			if role == "editor" {
				want = models.RoleEditor
			}
			return member.Role == want
		},
		roles,
	))

	properties.TestingRun(t)
}
