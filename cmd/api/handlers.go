package main

import (
	"net/http"
	"strings"

	"cinepwa/proj/internal/clients/tmdb"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/lib/decoder"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func (app *Application) healthcheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, struct {
		Status  string `json:"status"`
		Debug   bool   `json:"debug"`
		Version string `json:"version"`
	}{
		Status:  "available",
		Debug:   app.cfg.Debug,
		Version: version,
	})
}

func (app *Application) getContentDetails(w http.ResponseWriter, r *http.Request) {
	mediaType := models.MediaType(chi.URLParam(r, "type"))
	if !mediaType.Valid() {
		app.Http.BadRequest(w, r, "type must be movie or tv")
		return
	}
	id, ok := app.extractIntParam(w, r, "id")
	if !ok {
		return
	}
	details, err := app.content.GetDetails(r.Context(), id, mediaType)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"content": details}, "")
}

func (app *Application) searchContent(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		app.Http.UnprocessableEntity(w, r, map[string]string{"query": "This field is required"})
		return
	}
	items, err := app.content.Search(r.Context(), query)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"results": items}, "")
}

func (app *Application) trendingContent(w http.ResponseWriter, r *http.Request) {
	items, err := app.content.Trending(r.Context(), r.URL.Query().Get("window"))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"results": items}, "")
}

type discoverQuery struct {
	MediaType  string  `json:"media_type" validate:"omitempty,content_type"`
	WithGenres string  `json:"with_genres"`
	WithCast   int     `json:"with_cast" validate:"gte=0"`
	WithCrew   int     `json:"with_crew" validate:"gte=0"`
	Year       int     `json:"year" validate:"omitempty,gte=1870,lte=2100"`
	SortBy     string  `json:"sort_by"`
	MinRating  float64 `json:"min_rating" validate:"gte=0,lte=10"`
}

func (app *Application) discoverContent(w http.ResponseWriter, r *http.Request) {
	var q discoverQuery
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if errs := app.validate(q); errs != nil {
		app.Http.UnprocessableEntity(w, r, errs)
		return
	}
	items, err := app.content.Discover(r.Context(), tmdb.DiscoverFilters{
		MediaType:  models.MediaType(q.MediaType),
		WithGenres: q.WithGenres,
		WithCast:   q.WithCast,
		WithCrew:   q.WithCrew,
		Year:       q.Year,
		SortBy:     q.SortBy,
		MinRating:  q.MinRating,
	})
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"results": items}, "")
}

func (app *Application) searchPerson(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		app.Http.UnprocessableEntity(w, r, map[string]string{"name": "This field is required"})
		return
	}
	id, err := app.content.SearchPerson(r.Context(), name)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"person_id": id}, "")
}

func (app *Application) resolveSharedList(w http.ResponseWriter, r *http.Request) {
	items, err := app.Services.Sharing.Resolve(r.Context(), r.URL.Query().Get("data"))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"items": items}, "")
}
