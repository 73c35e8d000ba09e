package watchlist

import "errors"

var (
	ErrNotInWatchlist = errors.New("title is not in the watchlist")
	ErrNotWatched     = errors.New("title is not marked as watched")
	ErrSeriesNotFound = errors.New("series not found")
)
