package memory

import (
	"context"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/storage"
)

type ProcedureModel struct {
	db *DB
}

func (m *ProcedureModel) GetListName(_ context.Context, listID string) (string, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	list, ok := m.db.st.lists[listID]
	if !ok {
		return "", storage.ErrNotFound
	}
	return list.Name, nil
}

// MigrateUserData rewrites a copy of the state and swaps it in only when every
// table has moved, so an injected failure leaves nothing half-migrated. The
// grants issued for oldUserID are spent with it.
func (m *ProcedureModel) MigrateUserData(_ context.Context, oldUserID, newUserID string) error {
	if oldUserID == "" || newUserID == "" || oldUserID == newUserID {
		return nil
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	st := m.db.st.clone()

	watchlist := make([]models.WatchlistEntry, 0, len(st.watchlist))
	for _, e := range st.watchlist {
		if e.UserID == oldUserID {
			if st.hasWatchlist(newUserID, models.ContentRef{ID: e.TMDBID, MediaType: e.MediaType}) {
				continue
			}
			e.UserID = newUserID
		}
		watchlist = append(watchlist, e)
	}
	st.watchlist = watchlist

	watched := make([]models.WatchedMovie, 0, len(st.watched))
	for _, w := range st.watched {
		if w.UserID == oldUserID {
			if st.hasWatched(newUserID, w.TMDBID) {
				continue
			}
			w.UserID = newUserID
		}
		watched = append(watched, w)
	}
	st.watched = watched

	// Interrupted halfway: the personal tables moved on the copy only.
	if err := m.db.failure("migrate_user_data"); err != nil {
		return err
	}

	episodes := make([]models.WatchedEpisode, 0, len(st.episodes))
	for _, ep := range st.episodes {
		if ep.UserID == oldUserID {
			if st.hasEpisode(newUserID, ep.TMDBEpisodeID) {
				continue
			}
			ep.UserID = newUserID
		}
		episodes = append(episodes, ep)
	}
	st.episodes = episodes

	ownedByOld := make(map[string]bool)
	for _, mem := range st.members {
		if mem.UserID == oldUserID && mem.Role == models.RoleOwner {
			ownedByOld[mem.ListID] = true
		}
	}
	heldByNew := make(map[string]bool)
	for _, mem := range st.members {
		if mem.UserID == newUserID && !ownedByOld[mem.ListID] {
			heldByNew[mem.ListID] = true
		}
	}
	members := make([]models.ListMember, 0, len(st.members))
	for _, mem := range st.members {
		switch {
		case mem.UserID == newUserID && ownedByOld[mem.ListID]:
			continue
		case mem.UserID == oldUserID && heldByNew[mem.ListID]:
			continue
		case mem.UserID == oldUserID:
			mem.UserID = newUserID
		}
		members = append(members, mem)
	}
	st.members = members

	now := m.db.tick()
	for id, list := range st.lists {
		if list.OwnerID == oldUserID {
			list.OwnerID = newUserID
			list.UpdatedAt = now
			st.lists[id] = list
		}
	}
	for i := range st.items {
		if st.items[i].AddedBy == oldUserID {
			st.items[i].AddedBy = newUserID
		}
	}

	for k := range st.grants {
		if k.oldUserID == oldUserID {
			delete(st.grants, k)
		}
	}

	m.db.st = st
	return nil
}
