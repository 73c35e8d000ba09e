// Package cache mirrors the personal watchlist of the active identity locally.
// Mutations apply at once and are written to the backend in the background
// without rollback; Sync pushes local rows and then replaces local state with
// the remote one.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"cinepwa/proj/internal/clients/api"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/localstore"
	"cinepwa/proj/internal/storage"
)

const keyPrefix = "cinepwa-storage:"

var ErrSyncInProgress = errors.New("cache: sync already in progress")

// Key is the local store key of userID's state.
func Key(userID string) string {
	return keyPrefix + userID
}

type Remote interface {
	AddToWatchlist(ctx context.Context, ref models.ContentRef) error
	RemoveFromWatchlist(ctx context.Context, tmdbID int) error
	MarkWatched(ctx context.Context, tmdbID int, mediaType models.MediaType) error
	MarkUnwatched(ctx context.Context, tmdbID int) error
	SyncUserContent(ctx context.Context, items []models.ContentRef, watchedIDs []int) (*api.SyncResult, error)
	UserContent(ctx context.Context) (*models.UserContent, error)
}

type Executor interface {
	Add(name string, fn func(ctx context.Context) error) error
}

// EffectResult reports the outcome of the remote write behind an action.
type EffectResult struct {
	Action Action
	Err    error
}

type Cache struct {
	log     *slog.Logger
	store   localstore.Store
	key     string
	remote  Remote
	exec    Executor
	results chan EffectResult

	mu      sync.RWMutex
	state   State
	syncing atomic.Bool
}

// Open loads the state stored for userID. Another identity's state is never visible.
func Open(ctx context.Context, log *slog.Logger, store localstore.Store, userID string, remote Remote, exec Executor) (*Cache, error) {
	c := &Cache{
		log:     log.With("user_id", userID),
		store:   store,
		key:     Key(userID),
		remote:  remote,
		exec:    exec,
		results: make(chan EffectResult, 64),
		state:   Reduce(State{}, Action{}),
	}
	raw, err := store.Get(ctx, c.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("load cache: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		c.log.Warn("discarding unreadable cache", "errMsg", err.Error())
		return c, nil
	}
	c.state = Reduce(State{}, Action{Kind: ActionReplace, State: st})
	return c, nil
}

// Results publishes effect outcomes. Results are dropped when nobody reads.
func (c *Cache) Results() <-chan EffectResult {
	return c.results
}

func (c *Cache) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

func (c *Cache) IsInList(id int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.InList(id)
}

func (c *Cache) IsWatched(id int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Watched(id)
}

// AddToList is a no-op when an item with the same id is already there.
func (c *Cache) AddToList(ctx context.Context, item models.ContentItem) {
	if !item.MediaType.Valid() {
		item.MediaType = models.MediaMovie
	}
	c.mu.Lock()
	if c.state.InList(item.ID) {
		c.mu.Unlock()
		return
	}
	c.apply(ctx, Action{Kind: ActionAdd, Item: item})
	c.mu.Unlock()
}

func (c *Cache) RemoveFromList(ctx context.Context, id int) {
	c.mu.Lock()
	c.apply(ctx, Action{Kind: ActionRemove, ID: id})
	c.mu.Unlock()
}

// MarkAsWatched takes the media type from MyList, movie when absent.
func (c *Cache) MarkAsWatched(ctx context.Context, id int) {
	c.mu.Lock()
	c.apply(ctx, Action{Kind: ActionMarkWatched, ID: id, MediaType: c.state.MediaTypeOf(id)})
	c.mu.Unlock()
}

func (c *Cache) MarkAsUnwatched(ctx context.Context, id int) {
	c.mu.Lock()
	c.apply(ctx, Action{Kind: ActionMarkUnwatched, ID: id})
	c.mu.Unlock()
}

// apply must be called with mu held.
func (c *Cache) apply(ctx context.Context, a Action) {
	c.state = Reduce(c.state, a)
	c.persist(ctx)
	if effect := c.effectFor(a); effect != nil {
		name := "cache." + string(a.Kind)
		err := c.exec.Add(name, func(ctx context.Context) error {
			err := effect(ctx)
			if err != nil {
				c.log.Warn("remote write failed", "action", a.Kind, "id", a.ID, "errMsg", err.Error())
			}
			c.publish(EffectResult{Action: a, Err: err})
			return err
		})
		if err != nil {
			c.log.Warn("remote write not scheduled", "action", a.Kind, "errMsg", err.Error())
			c.publish(EffectResult{Action: a, Err: err})
		}
	}
}

func (c *Cache) effectFor(a Action) func(ctx context.Context) error {
	switch a.Kind {
	case ActionAdd:
		ref := a.Item.Ref()
		return func(ctx context.Context) error { return c.remote.AddToWatchlist(ctx, ref) }
	case ActionRemove:
		return func(ctx context.Context) error { return c.remote.RemoveFromWatchlist(ctx, a.ID) }
	case ActionMarkWatched:
		return func(ctx context.Context) error { return c.remote.MarkWatched(ctx, a.ID, a.MediaType) }
	case ActionMarkUnwatched:
		return func(ctx context.Context) error { return c.remote.MarkUnwatched(ctx, a.ID) }
	}
	return nil
}

func (c *Cache) publish(r EffectResult) {
	select {
	case c.results <- r:
	default:
	}
}

// persist must be called with mu held.
func (c *Cache) persist(ctx context.Context) {
	raw, err := json.Marshal(c.state)
	if err != nil {
		c.log.Error("failed to encode cache", "errMsg", err.Error())
		return
	}
	if err := c.store.Set(ctx, c.key, raw); err != nil {
		c.log.Error("failed to persist cache", "errMsg", err.Error())
	}
}

// Sync pushes the local rows the backend misses, then replaces local state
// with the remote state. A failed push is logged and the pull still runs; a
// failed pull leaves local state untouched.
func (c *Cache) Sync(ctx context.Context) error {
	const op = "cache.Cache.Sync"
	if !c.syncing.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer c.syncing.Store(false)
	log := c.log.With("op", op)

	local := c.Snapshot()
	refs := make([]models.ContentRef, len(local.MyList))
	for i, item := range local.MyList {
		refs[i] = item.Ref()
	}
	pushed, err := c.remote.SyncUserContent(ctx, refs, local.WatchedIDs)
	if err != nil {
		log.Warn("push failed", "errMsg", err.Error())
	} else {
		log.Debug("pushed local state", "watchlist", pushed.Watchlist, "watched", pushed.Watched)
	}

	remote, err := c.remote.UserContent(ctx)
	if err != nil {
		log.Error("pull failed", "errMsg", err.Error())
		return fmt.Errorf("pull remote state: %w", err)
	}
	c.mu.Lock()
	c.apply(ctx, Action{Kind: ActionReplace, State: State{MyList: remote.Watchlist, WatchedIDs: remote.WatchedIDs}})
	c.mu.Unlock()
	log.Info("cache synced", "watchlist", len(remote.Watchlist), "watched", len(remote.WatchedIDs))
	return nil
}
