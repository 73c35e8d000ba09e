package main

import (
	"net/http"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/services/watchlist"
)

func (app *Application) getWatchlist(w http.ResponseWriter, r *http.Request) {
	items, err := app.Services.Watchlist.List(r.Context())
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"watchlist": items}, "")
}

func (app *Application) addToWatchlist(w http.ResponseWriter, r *http.Request) {
	var req models.ContentRef
	if !app.readValidJSON(w, r, &req) {
		return
	}
	if err := app.Services.Watchlist.Add(r.Context(), req); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"item": req}, "")
}

func (app *Application) removeFromWatchlist(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIntParam(w, r, "tmdbID")
	if !ok {
		return
	}
	if err := app.Services.Watchlist.Remove(r.Context(), id); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) getUserContent(w http.ResponseWriter, r *http.Request) {
	content, err := app.Services.Watchlist.Content(r.Context())
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"content": content}, "")
}

func (app *Application) syncUserContent(w http.ResponseWriter, r *http.Request) {
	var req watchlist.SyncRequest
	if !app.readValidJSON(w, r, &req) {
		return
	}
	result, err := app.Services.Watchlist.Sync(r.Context(), req)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"inserted": result}, "")
}

func (app *Application) getWatchedIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := app.Services.Watchlist.WatchedIDs(r.Context())
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"watched_ids": ids}, "")
}

func (app *Application) markWatched(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID        int    `json:"id" validate:"required,gt=0"`
		MediaType string `json:"media_type" validate:"omitempty,content_type"`
	}
	if !app.readValidJSON(w, r, &req) {
		return
	}
	if err := app.Services.Watchlist.MarkWatched(r.Context(), req.ID, models.MediaType(req.MediaType)); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"id": req.ID}, "")
}

func (app *Application) markUnwatched(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIntParam(w, r, "tmdbID")
	if !ok {
		return
	}
	if err := app.Services.Watchlist.MarkUnwatched(r.Context(), id); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) markEpisodeWatched(w http.ResponseWriter, r *http.Request) {
	var req watchlist.EpisodeRequest
	if !app.readValidJSON(w, r, &req) {
		return
	}
	if err := app.Services.Watchlist.MarkEpisodeWatched(r.Context(), req); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"episode": req}, "")
}

func (app *Application) markEpisodeUnwatched(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIntParam(w, r, "episodeID")
	if !ok {
		return
	}
	if err := app.Services.Watchlist.MarkEpisodeUnwatched(r.Context(), id); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) getWatchedEpisodes(w http.ResponseWriter, r *http.Request) {
	showID, ok := app.extractIntParam(w, r, "showID")
	if !ok {
		return
	}
	episodes, err := app.Services.Watchlist.WatchedEpisodes(r.Context(), showID)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"episodes": episodes}, "")
}

func (app *Application) getShowProgress(w http.ResponseWriter, r *http.Request) {
	showID, ok := app.extractIntParam(w, r, "showID")
	if !ok {
		return
	}
	progress, err := app.Services.Watchlist.Progress(r.Context(), showID)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"progress": progress}, "")
}
