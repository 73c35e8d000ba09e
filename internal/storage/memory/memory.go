// Package memory keeps every table in process memory. It mirrors the API of
// storage/postgres/models and backs tests and the `memory` db driver.
package memory

import (
	"errors"
	"sync"
	"time"

	"cinepwa/proj/internal/domain/models"
)

// ErrInjected is returned by operations armed with FailNext.
var ErrInjected = errors.New("memory: injected failure")

type grantKey struct {
	oldUserID string
	newUserID string
}

type state struct {
	users      map[string]models.User
	magicLinks map[string]models.MagicLink
	grants     map[grantKey]time.Time
	revoked    map[string]time.Time
	lists      map[string]models.List
	members    []models.ListMember
	items      []models.ListItem
	watchlist  []models.WatchlistEntry
	watched    []models.WatchedMovie
	episodes   []models.WatchedEpisode
	series     map[int]models.SeriesCache
}

func newState() *state {
	return &state{
		users:      make(map[string]models.User),
		magicLinks: make(map[string]models.MagicLink),
		grants:     make(map[grantKey]time.Time),
		revoked:    make(map[string]time.Time),
		lists:      make(map[string]models.List),
		series:     make(map[int]models.SeriesCache),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.magicLinks {
		c.magicLinks[k] = v
	}
	for k, v := range s.grants {
		c.grants[k] = v
	}
	for k, v := range s.revoked {
		c.revoked[k] = v
	}
	for k, v := range s.lists {
		c.lists[k] = v
	}
	for k, v := range s.series {
		c.series[k] = v
	}
	c.members = append([]models.ListMember(nil), s.members...)
	c.items = append([]models.ListItem(nil), s.items...)
	c.watchlist = append([]models.WatchlistEntry(nil), s.watchlist...)
	c.watched = append([]models.WatchedMovie(nil), s.watched...)
	c.episodes = append([]models.WatchedEpisode(nil), s.episodes...)
	return c
}

func (s *state) member(listID, userID string) (int, bool) {
	for i, m := range s.members {
		if m.ListID == listID && m.UserID == userID {
			return i, true
		}
	}
	return -1, false
}

// DB is the shared backing store of every model.
type DB struct {
	mu    sync.RWMutex
	st    *state
	now   func() time.Time
	fails map[string]error
}

func (db *DB) tick() time.Time {
	return db.now()
}

// FailNext makes the next call of the named operation (for example
// "watchlist.insert" or "migrate_user_data") return err.
func (db *DB) FailNext(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	db.fails[op] = err
}

// failure must be called with mu held.
func (db *DB) failure(op string) error {
	if err, ok := db.fails[op]; ok {
		delete(db.fails, op)
		return err
	}
	return nil
}

type Models struct {
	DB          *DB
	Users       *UserModel
	Tokens      *TokenModel
	Lists       *ListModel
	Members     *MemberModel
	Items       *ItemModel
	Watchlist   *WatchlistModel
	Watched     *WatchedModel
	Episodes    *EpisodeModel
	SeriesCache *SeriesCacheModel
	Procedures  *ProcedureModel
}

func New() *Models {
	return NewWithClock(monotonicClock())
}

// NewWithClock lets tests control created_at/updated_at stamps.
func NewWithClock(now func() time.Time) *Models {
	db := &DB{st: newState(), now: now, fails: make(map[string]error)}
	return &Models{
		DB:          db,
		Users:       &UserModel{db},
		Tokens:      &TokenModel{db},
		Lists:       &ListModel{db},
		Members:     &MemberModel{db},
		Items:       &ItemModel{db},
		Watchlist:   &WatchlistModel{db},
		Watched:     &WatchedModel{db},
		Episodes:    &EpisodeModel{db},
		SeriesCache: &SeriesCacheModel{db},
		Procedures:  &ProcedureModel{db},
	}
}

// monotonicClock never returns the same instant twice, so insertion order and
// created_at order always agree.
func monotonicClock() func() time.Time {
	var mu sync.Mutex
	var last time.Time
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := time.Now().UTC()
		if !now.After(last) {
			now = last.Add(time.Microsecond)
		}
		last = now
		return now
	}
}
