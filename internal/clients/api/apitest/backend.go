// Package apitest serves the api.Client method set in process, straight over
// the services and the memory store, for client side tests.
package apitest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"cinepwa/proj/internal/clients/api"
	"cinepwa/proj/internal/clients/tmdb"
	"cinepwa/proj/internal/config"
	"cinepwa/proj/internal/domain/filters"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/lib/logger"
	"cinepwa/proj/internal/mails"
	"cinepwa/proj/internal/services"
	"cinepwa/proj/internal/services/auth"
	"cinepwa/proj/internal/services/lists"
	"cinepwa/proj/internal/services/migration"
	"cinepwa/proj/internal/services/watchlist"
	"cinepwa/proj/internal/storage"
	"cinepwa/proj/internal/storage/memory"
)

// Content answers every lookup with a synthetic title. Ids from 900000 up do not exist.
type Content struct{}

func (Content) GetDetails(_ context.Context, id int, mediaType models.MediaType) (*models.ContentDetails, error) {
	if id >= 900000 {
		return nil, tmdb.ErrNotFound
	}
	details := &models.ContentDetails{ContentItem: models.ContentItem{ID: id, MediaType: mediaType}}
	if mediaType == models.MediaTV {
		details.Name = fmt.Sprintf("Show %d", id)
		details.NumberOfSeasons = 1
		details.NumberOfEpisodes = 8
	} else {
		details.Title = fmt.Sprintf("Movie %d", id)
	}
	return details, nil
}

type outbox struct {
	mu    sync.Mutex
	links []string
}

func (o *outbox) Send(_ context.Context, _ string, _ string, data any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if d, ok := data.(mails.MagicLinkData); ok {
		o.links = append(o.links, d.Link)
	}
	return nil
}

type inline struct{}

func (inline) Add(_ string, fn func(ctx context.Context) error) error {
	return fn(context.Background())
}

// Backend stands in for api.Client. Its zero token is "no session".
type Backend struct {
	Store    *memory.Models
	Services *services.Services

	outbox *outbox
	mu     sync.Mutex
	token  string
	fails  map[string]error
	calls  map[string]int
}

func New() *Backend {
	cfg := &config.Config{
		AppSecret: "apitest-secret",
		BaseURL:   "http://localhost:5173",
		Auth: config.Auth{
			SessionTTL:   time.Hour,
			MagicLinkTTL: time.Hour,
			VerifyPath:   "/auth/verify",
		},
		SeriesCache: config.SeriesCache{TTL: time.Hour},
	}
	store := memory.New()
	out := &outbox{}
	return &Backend{
		Store:    store,
		Services: services.New(logger.Discard(), cfg, services.MemoryStorage(store), Content{}, out, inline{}),
		outbox:   out,
		fails:    make(map[string]error),
		calls:    make(map[string]int),
	}
}

// FailNext makes the next call of method return err.
func (b *Backend) FailNext(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fails[method] = err
}

// Calls counts the invocations of method.
func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// LastLinkToken is the token of the most recent magic link mail.
func (b *Backend) LastLinkToken() string {
	b.outbox.mu.Lock()
	defer b.outbox.mu.Unlock()
	if len(b.outbox.links) == 0 {
		return ""
	}
	u, err := url.Parse(b.outbox.links[len(b.outbox.links)-1])
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}

func (b *Backend) SetToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = token
}

func (b *Backend) Token() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

// enter records the call, applies injected failures and resolves the caller.
func (b *Backend) enter(ctx context.Context, method string, write bool) (context.Context, error) {
	b.mu.Lock()
	b.calls[method]++
	err, failed := b.fails[method]
	delete(b.fails, method)
	token := b.token
	b.mu.Unlock()
	if failed {
		return nil, toAPIError(method, write, err)
	}
	if token == "" {
		return ctx, nil
	}
	principal, err := b.Services.Auth.Authenticate(ctx, token)
	if err != nil {
		return nil, toAPIError(method, write, err)
	}
	return auth.ContextWithPrincipal(ctx, principal), nil
}

func toAPIError(method string, write bool, err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return err
	}
	httpMethod := http.MethodGet
	if write {
		httpMethod = http.MethodPost
	}
	return &api.Error{Method: httpMethod, Path: method, Status: status(err), Message: err.Error()}
}

func status(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrInvalidLink):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrInvalidData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, lists.ErrListNotFound),
		errors.Is(err, lists.ErrItemNotFound),
		errors.Is(err, lists.ErrMemberNotFound),
		errors.Is(err, watchlist.ErrNotInWatchlist),
		errors.Is(err, watchlist.ErrNotWatched),
		errors.Is(err, tmdb.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lists.ErrNotMember),
		errors.Is(err, lists.ErrForbidden),
		errors.Is(err, migration.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func call[T any](b *Backend, ctx context.Context, method string, write bool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	ctx, err := b.enter(ctx, method, write)
	if err != nil {
		return zero, err
	}
	v, err := fn(ctx)
	if err != nil {
		return zero, toAPIError(method, write, err)
	}
	return v, nil
}

func exec(b *Backend, ctx context.Context, method string, fn func(ctx context.Context) error) error {
	_, err := call(b, ctx, method, true, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (b *Backend) SignInAnonymously(ctx context.Context) (*models.Session, error) {
	return call(b, ctx, "SignInAnonymously", true, b.Services.Auth.SignInAnonymously)
}

func (b *Backend) RequestMagicLink(ctx context.Context, email string) error {
	return exec(b, ctx, "RequestMagicLink", func(ctx context.Context) error {
		return b.Services.Auth.RequestMagicLink(ctx, email)
	})
}

func (b *Backend) VerifyMagicLink(ctx context.Context, token string) (*models.Session, error) {
	return call(b, ctx, "VerifyMagicLink", true, func(ctx context.Context) (*models.Session, error) {
		return b.Services.Auth.VerifyMagicLink(ctx, token)
	})
}

func (b *Backend) CurrentUser(ctx context.Context) (*models.User, error) {
	return call(b, ctx, "CurrentUser", false, b.Services.Auth.CurrentUser)
}

func (b *Backend) UpdateDisplayName(ctx context.Context, name string) (*models.User, error) {
	return call(b, ctx, "UpdateDisplayName", true, func(ctx context.Context) (*models.User, error) {
		return b.Services.Auth.UpdateDisplayName(ctx, name)
	})
}

func (b *Backend) Logout(ctx context.Context) error {
	return exec(b, ctx, "Logout", b.Services.Auth.Logout)
}

func (b *Backend) MigrateUserData(ctx context.Context, oldUserID, newUserID string) error {
	return exec(b, ctx, "MigrateUserData", func(ctx context.Context) error {
		return b.Services.Migration.Migrate(ctx, oldUserID, newUserID)
	})
}

func (b *Backend) GetListName(ctx context.Context, listID string) (string, error) {
	return call(b, ctx, "GetListName", false, func(ctx context.Context) (string, error) {
		return b.Services.Lists.GetListName(ctx, listID)
	})
}

func (b *Backend) ListLists(ctx context.Context, sort string) ([]models.List, error) {
	return call(b, ctx, "ListLists", false, func(ctx context.Context) ([]models.List, error) {
		return b.Services.Lists.ListLists(ctx, filters.ForLists(sort))
	})
}

func (b *Backend) CreateList(ctx context.Context, name string) (*models.List, error) {
	return call(b, ctx, "CreateList", true, func(ctx context.Context) (*models.List, error) {
		return b.Services.Lists.CreateList(ctx, name)
	})
}

func (b *Backend) GetListDetails(ctx context.Context, listID string) (*models.ListDetails, error) {
	return call(b, ctx, "GetListDetails", false, func(ctx context.Context) (*models.ListDetails, error) {
		return b.Services.Lists.GetListDetails(ctx, listID)
	})
}

func (b *Backend) RenameList(ctx context.Context, listID, name string) (*models.List, error) {
	return call(b, ctx, "RenameList", true, func(ctx context.Context) (*models.List, error) {
		return b.Services.Lists.RenameList(ctx, listID, name)
	})
}

func (b *Backend) DeleteList(ctx context.Context, listID string) error {
	return exec(b, ctx, "DeleteList", func(ctx context.Context) error {
		return b.Services.Lists.DeleteList(ctx, listID)
	})
}

func (b *Backend) ShareURL(ctx context.Context, listID string, role models.Role) (string, error) {
	return call(b, ctx, "ShareURL", false, func(ctx context.Context) (string, error) {
		if _, err := b.Services.Lists.MemberRole(ctx, listID); err != nil {
			return "", err
		}
		return b.Services.Lists.ShareURL(listID, string(role)), nil
	})
}

func (b *Backend) AddItem(ctx context.Context, listID string, ref models.ContentRef) (*models.ListItem, error) {
	return call(b, ctx, "AddItem", true, func(ctx context.Context) (*models.ListItem, error) {
		return b.Services.Lists.AddItem(ctx, listID, ref)
	})
}

func (b *Backend) RemoveItem(ctx context.Context, itemID string) error {
	return exec(b, ctx, "RemoveItem", func(ctx context.Context) error {
		return b.Services.Lists.RemoveItem(ctx, itemID)
	})
}

func (b *Backend) JoinList(ctx context.Context, listID, memberName string, role models.Role) (*models.ListMember, error) {
	return call(b, ctx, "JoinList", true, func(ctx context.Context) (*models.ListMember, error) {
		return b.Services.Lists.JoinList(ctx, listID, memberName, string(role))
	})
}

func (b *Backend) RemoveMember(ctx context.Context, listID, userID string) error {
	return exec(b, ctx, "RemoveMember", func(ctx context.Context) error {
		return b.Services.Lists.RemoveMember(ctx, listID, userID)
	})
}

func (b *Backend) ListsContainingContent(ctx context.Context, contentID int, contentType models.MediaType) (map[string]string, error) {
	return call(b, ctx, "ListsContainingContent", false, func(ctx context.Context) (map[string]string, error) {
		return b.Services.Lists.ListsContainingContent(ctx, contentID, contentType)
	})
}

func (b *Backend) Watchlist(ctx context.Context) ([]models.ContentItem, error) {
	return call(b, ctx, "Watchlist", false, b.Services.Watchlist.List)
}

func (b *Backend) AddToWatchlist(ctx context.Context, ref models.ContentRef) error {
	return exec(b, ctx, "AddToWatchlist", func(ctx context.Context) error {
		return b.Services.Watchlist.Add(ctx, ref)
	})
}

func (b *Backend) RemoveFromWatchlist(ctx context.Context, tmdbID int) error {
	return exec(b, ctx, "RemoveFromWatchlist", func(ctx context.Context) error {
		return b.Services.Watchlist.Remove(ctx, tmdbID)
	})
}

func (b *Backend) MarkWatched(ctx context.Context, tmdbID int, mediaType models.MediaType) error {
	return exec(b, ctx, "MarkWatched", func(ctx context.Context) error {
		return b.Services.Watchlist.MarkWatched(ctx, tmdbID, mediaType)
	})
}

func (b *Backend) MarkUnwatched(ctx context.Context, tmdbID int) error {
	return exec(b, ctx, "MarkUnwatched", func(ctx context.Context) error {
		return b.Services.Watchlist.MarkUnwatched(ctx, tmdbID)
	})
}

func (b *Backend) UserContent(ctx context.Context) (*models.UserContent, error) {
	return call(b, ctx, "UserContent", false, b.Services.Watchlist.Content)
}

func (b *Backend) SyncUserContent(ctx context.Context, items []models.ContentRef, watchedIDs []int) (*api.SyncResult, error) {
	return call(b, ctx, "SyncUserContent", true, func(ctx context.Context) (*api.SyncResult, error) {
		res, err := b.Services.Watchlist.Sync(ctx, watchlist.SyncRequest{Items: items, WatchedIDs: watchedIDs})
		if err != nil {
			return nil, err
		}
		return &api.SyncResult{Watchlist: res.Watchlist, Watched: res.Watched}, nil
	})
}

func (b *Backend) GetDetails(ctx context.Context, id int, mediaType models.MediaType) (*models.ContentDetails, error) {
	return call(b, ctx, "GetDetails", false, func(ctx context.Context) (*models.ContentDetails, error) {
		return Content{}.GetDetails(ctx, id, mediaType)
	})
}

func (b *Backend) Search(ctx context.Context, query string) ([]models.ContentItem, error) {
	return call(b, ctx, "Search", false, func(ctx context.Context) ([]models.ContentItem, error) {
		return []models.ContentItem{{ID: 603, Title: query, MediaType: models.MediaMovie}}, nil
	})
}

func (b *Backend) Trending(ctx context.Context, window string) ([]models.ContentItem, error) {
	return call(b, ctx, "Trending", false, func(ctx context.Context) ([]models.ContentItem, error) {
		return []models.ContentItem{{ID: 1399, Name: "Trending " + window, MediaType: models.MediaTV}}, nil
	})
}
