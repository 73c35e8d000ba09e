package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cinepwa/proj/internal/domain/models"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	defaultLanguage = "pt-BR"
)

var ErrNotFound = errors.New("tmdb: not found")

// APIError is the error body TMDB returns together with a non 2xx status.
type APIError struct {
	HTTPStatus    int    `json:"-"`
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tmdb api error (http %d, code %d): %s", e.HTTPStatus, e.StatusCode, e.StatusMessage)
}

type Client struct {
	baseURL     string
	accessToken string
	language    string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

type Options struct {
	BaseURL     string
	AccessToken string
	Language    string
	Rps         float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Language == "" {
		opts.Language = defaultLanguage
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	if opts.Rps > 0 {
		limit = rate.Limit(opts.Rps)
	}
	return &Client{
		baseURL:     opts.BaseURL,
		accessToken: opts.AccessToken,
		language:    opts.Language,
		httpClient:  opts.HTTPClient,
		limiter:     rate.NewLimiter(limit, max(int(opts.Rps), 1)),
	}
}

type pagedResponse struct {
	Page    int                  `json:"page"`
	Results []models.ContentItem `json:"results"`
}

type DiscoverFilters struct {
	MediaType  models.MediaType
	WithGenres string
	WithCast   int
	WithCrew   int
	Year       int
	SortBy     string
	MinRating  float64
}

func (f DiscoverFilters) query() url.Values {
	q := url.Values{}
	if f.WithGenres != "" {
		q.Set("with_genres", f.WithGenres)
	}
	if f.WithCast > 0 {
		q.Set("with_cast", strconv.Itoa(f.WithCast))
	}
	if f.WithCrew > 0 {
		q.Set("with_crew", strconv.Itoa(f.WithCrew))
	}
	if f.Year > 0 {
		if f.MediaType == models.MediaTV {
			q.Set("first_air_date_year", strconv.Itoa(f.Year))
		} else {
			q.Set("primary_release_year", strconv.Itoa(f.Year))
		}
	}
	if f.SortBy != "" {
		q.Set("sort_by", f.SortBy)
	} else {
		q.Set("sort_by", "popularity.desc")
	}
	if f.MinRating > 0 {
		q.Set("vote_average.gte", strconv.FormatFloat(f.MinRating, 'f', -1, 64))
	}
	return q
}

func (c *Client) GetDetails(ctx context.Context, id int, mediaType models.MediaType) (*models.ContentDetails, error) {
	if id <= 0 || !mediaType.Valid() {
		return nil, ErrNotFound
	}
	var details models.ContentDetails
	path := fmt.Sprintf("/%s/%d", mediaType, id)
	if err := c.get(ctx, path, nil, &details); err != nil {
		return nil, err
	}
	details.MediaType = mediaType
	return &details, nil
}

// Search runs a multi search and keeps only movies and shows.
func (c *Client) Search(ctx context.Context, query string) ([]models.ContentItem, error) {
	if query == "" {
		return []models.ContentItem{}, nil
	}
	var resp pagedResponse
	if err := c.get(ctx, "/search/multi", url.Values{"query": {query}}, &resp); err != nil {
		return nil, err
	}
	items := make([]models.ContentItem, 0, len(resp.Results))
	for _, item := range resp.Results {
		if item.MediaType.Valid() {
			items = append(items, item)
		}
	}
	return items, nil
}

// Trending lists titles trending over window, "day" or "week" (the default).
func (c *Client) Trending(ctx context.Context, window string) ([]models.ContentItem, error) {
	if window != "day" {
		window = "week"
	}
	var resp pagedResponse
	if err := c.get(ctx, "/trending/all/"+window, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) Discover(ctx context.Context, f DiscoverFilters) ([]models.ContentItem, error) {
	mediaType := f.MediaType
	if mediaType != models.MediaTV {
		mediaType = models.MediaMovie
	}
	var resp pagedResponse
	if err := c.get(ctx, "/discover/"+string(mediaType), f.query(), &resp); err != nil {
		return nil, err
	}
	for i := range resp.Results {
		resp.Results[i].MediaType = mediaType
	}
	return resp.Results, nil
}

// SearchPerson returns the id of the best match for name, or ErrNotFound.
func (c *Client) SearchPerson(ctx context.Context, name string) (int, error) {
	var resp struct {
		Results []struct {
			ID int `json:"id"`
		} `json:"results"`
	}
	if err := c.get(ctx, "/search/person", url.Values{"query": {name}}, &resp); err != nil {
		return 0, err
	}
	if len(resp.Results) == 0 {
		return 0, ErrNotFound
	}
	return resp.Results[0].ID, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("language", c.language)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb: %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{HTTPStatus: resp.StatusCode}
		json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("tmdb: decode %s: %w", path, err)
	}
	return nil
}
