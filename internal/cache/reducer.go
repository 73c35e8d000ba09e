package cache

import (
	"slices"

	"cinepwa/proj/internal/domain/models"
)

// State is the locally mirrored personal watchlist of one identity.
type State struct {
	MyList     []models.ContentItem `json:"my_list"`
	WatchedIDs []int                `json:"watched_ids"`
}

func (s State) clone() State {
	return State{
		MyList:     slices.Clone(s.MyList),
		WatchedIDs: slices.Clone(s.WatchedIDs),
	}
}

func (s State) InList(id int) bool {
	return slices.ContainsFunc(s.MyList, func(item models.ContentItem) bool { return item.ID == id })
}

func (s State) Watched(id int) bool {
	return slices.Contains(s.WatchedIDs, id)
}

// MediaTypeOf looks id up in MyList, defaulting to movie.
func (s State) MediaTypeOf(id int) models.MediaType {
	for _, item := range s.MyList {
		if item.ID == id && item.MediaType.Valid() {
			return item.MediaType
		}
	}
	return models.MediaMovie
}

type ActionKind string

const (
	ActionAdd           ActionKind = "add"
	ActionRemove        ActionKind = "remove"
	ActionMarkWatched   ActionKind = "mark_watched"
	ActionMarkUnwatched ActionKind = "mark_unwatched"
	ActionReplace       ActionKind = "replace"
)

type Action struct {
	Kind ActionKind
	// Item is set for ActionAdd.
	Item models.ContentItem
	// ID is set for remove and the watched actions.
	ID int
	// MediaType is resolved for ActionMarkWatched before dispatch.
	MediaType models.MediaType
	// State is set for ActionReplace.
	State State
}

// Reduce returns the state after a. It never mutates s.
func Reduce(s State, a Action) State {
	next := s.clone()
	switch a.Kind {
	case ActionAdd:
		if !s.InList(a.Item.ID) {
			next.MyList = append(next.MyList, a.Item)
		}
	case ActionRemove:
		next.MyList = slices.DeleteFunc(next.MyList, func(item models.ContentItem) bool { return item.ID == a.ID })
	case ActionMarkWatched:
		if !s.Watched(a.ID) {
			next.WatchedIDs = append(next.WatchedIDs, a.ID)
		}
	case ActionMarkUnwatched:
		next.WatchedIDs = slices.DeleteFunc(next.WatchedIDs, func(id int) bool { return id == a.ID })
	case ActionReplace:
		next = a.State.clone()
	}
	if next.MyList == nil {
		next.MyList = []models.ContentItem{}
	}
	if next.WatchedIDs == nil {
		next.WatchedIDs = []int{}
	}
	return next
}
