package models

import (
	"time"
)

type User struct {
	ID          string    `json:"id" db:"id"`
	Email       string    `json:"email,omitempty" db:"email"`
	DisplayName string    `json:"display_name,omitempty" db:"display_name"`
	IsAnonymous bool      `json:"is_anonymous" db:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// MagicLink is a pending e-mail sign-in. RequestedBy holds the anonymous user
// who asked for it, if any, so their data may be carried over once it is used.
type MagicLink struct {
	Email       string    `db:"email"`
	RequestedBy string    `db:"requested_by"`
	ExpiresAt   time.Time `db:"expires_at"`
}

type List struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	Role      Role      `json:"role,omitempty" db:"role"` // Computed from the caller's membership
}

type ListMember struct {
	ListID     string    `json:"list_id" db:"list_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Role       Role      `json:"role" db:"role"`
	MemberName string    `json:"member_name,omitempty" db:"member_name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type ListItem struct {
	ID          string       `json:"id" db:"id"`
	ListID      string       `json:"list_id" db:"list_id"`
	ContentID   int          `json:"content_id" db:"content_id"`
	ContentType MediaType    `json:"content_type" db:"content_type"`
	AddedBy     string       `json:"added_by" db:"added_by"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	Content     *ContentItem `json:"content,omitempty" db:"-"`
}

type ListDetails struct {
	List    List         `json:"list"`
	Items   []ListItem   `json:"items"`
	Members []ListMember `json:"members"`
}

type WatchlistEntry struct {
	UserID    string    `json:"user_id" db:"user_id"`
	TMDBID    int       `json:"tmdb_id" db:"tmdb_id"`
	MediaType MediaType `json:"media_type" db:"media_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type WatchedMovie struct {
	UserID    string    `json:"user_id" db:"user_id"`
	TMDBID    int       `json:"tmdb_id" db:"tmdb_id"`
	MediaType MediaType `json:"media_type" db:"media_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type WatchedEpisode struct {
	UserID        string    `json:"user_id" db:"user_id"`
	TMDBEpisodeID int       `json:"tmdb_episode_id" db:"tmdb_episode_id"`
	TMDBShowID    int       `json:"tmdb_show_id" db:"tmdb_show_id"`
	SeasonNumber  int       `json:"season_number" db:"season_number"`
	EpisodeNumber int       `json:"episode_number" db:"episode_number"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

type SeriesCache struct {
	TMDBID          int       `json:"tmdb_id" db:"tmdb_id"`
	TotalEpisodes   int       `json:"total_episodes" db:"total_episodes"`
	NumberOfSeasons int       `json:"number_of_seasons" db:"number_of_seasons"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// UserContent is the personal watchlist/watched snapshot pulled by the client cache.
type UserContent struct {
	Watchlist  []ContentItem `json:"watchlist"`
	WatchedIDs []int         `json:"watched_ids"`
}
