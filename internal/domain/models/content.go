package models

type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

func (m MediaType) Valid() bool {
	return m == MediaMovie || m == MediaTV
}

// ContentRef identifies a title at the content provider.
type ContentRef struct {
	ID        int       `json:"id" validate:"required,gt=0"`
	MediaType MediaType `json:"media_type" validate:"required,content_type"`
}

type ContentItem struct {
	ID           int       `json:"id"`
	Title        string    `json:"title,omitempty"`
	Name         string    `json:"name,omitempty"`
	PosterPath   string    `json:"poster_path,omitempty"`
	BackdropPath string    `json:"backdrop_path,omitempty"`
	Overview     string    `json:"overview,omitempty"`
	MediaType    MediaType `json:"media_type"`
	VoteAverage  float64   `json:"vote_average,omitempty"`
	ReleaseDate  string    `json:"release_date,omitempty"`
	FirstAirDate string    `json:"first_air_date,omitempty"`
}

// DisplayTitle returns the movie title or the show name.
func (c ContentItem) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Name
}

func (c ContentItem) Ref() ContentRef {
	return ContentRef{ID: c.ID, MediaType: c.MediaType}
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Season struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date,omitempty"`
}

type ContentDetails struct {
	ContentItem
	Genres           []Genre  `json:"genres,omitempty"`
	Status           string   `json:"status,omitempty"`
	Runtime          int      `json:"runtime,omitempty"`
	NumberOfSeasons  int      `json:"number_of_seasons,omitempty"`
	NumberOfEpisodes int      `json:"number_of_episodes,omitempty"`
	Seasons          []Season `json:"seasons,omitempty"`
}
