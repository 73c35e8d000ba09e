package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (app *Application) routes() http.Handler {
	router := chi.NewRouter()
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.Http.NotFound(w, r, "Page not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		app.Http.Response(w, r, nil, "", http.StatusMethodNotAllowed)
	})
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(app.Recoverer)
	router.Use(app.RateLimiter)
	router.Use(app.Authenticate)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", app.healthcheck)
		r.Get("/shared", app.resolveSharedList)
		r.Get("/rpc/get_list_name/{id}", app.getListName)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/anonymous", app.signInAnonymously)
			r.Post("/magic-link", app.requestMagicLink)
			r.Post("/verify", app.verifyMagicLink)
			r.Group(func(r chi.Router) {
				r.Use(app.requireSession)
				r.Get("/user", app.getCurrentUser)
				r.Patch("/user", app.updateCurrentUser)
				r.Post("/logout", app.logout)
			})
		})
		r.Group(func(r chi.Router) {
			r.Use(app.requireSession)
			r.Post("/rpc/migrate_user_data", app.migrateUserData)
			r.Route("/lists", func(r chi.Router) {
				r.Get("/", app.listLists)
				r.Post("/", app.createList)
				r.Get("/containing", app.listsContainingContent)
				r.Delete("/items/{itemID}", app.removeListItem)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", app.getListDetails)
					r.Patch("/", app.renameList)
					r.Delete("/", app.deleteList)
					r.Get("/share", app.getShareURL)
					r.Post("/items", app.addListItem)
					r.Post("/members", app.joinList)
					r.Delete("/members/{userID}", app.removeListMember)
				})
			})
			r.Route("/watchlist", func(r chi.Router) {
				r.Get("/", app.getWatchlist)
				r.Post("/", app.addToWatchlist)
				r.Get("/content", app.getUserContent)
				r.Post("/sync", app.syncUserContent)
				r.Delete("/{tmdbID}", app.removeFromWatchlist)
			})
			r.Route("/watched", func(r chi.Router) {
				r.Get("/", app.getWatchedIDs)
				r.Post("/", app.markWatched)
				r.Delete("/{tmdbID}", app.markUnwatched)
			})
			r.Post("/episodes", app.markEpisodeWatched)
			r.Delete("/episodes/{episodeID}", app.markEpisodeUnwatched)
			r.Get("/shows/{showID}/episodes", app.getWatchedEpisodes)
			r.Get("/shows/{showID}/progress", app.getShowProgress)
			r.Route("/content", func(r chi.Router) {
				r.Get("/search", app.searchContent)
				r.Get("/trending", app.trendingContent)
				r.Get("/discover", app.discoverContent)
				r.Get("/person", app.searchPerson)
				r.Get("/{type}/{id}", app.getContentDetails)
			})
		})
	})
	return router
}
