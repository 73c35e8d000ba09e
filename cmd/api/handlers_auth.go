package main

import (
	"net/http"

	"cinepwa/proj/internal/services/auth"
)

func (app *Application) signInAnonymously(w http.ResponseWriter, r *http.Request) {
	session, err := app.Services.Auth.SignInAnonymously(r.Context())
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"session": session}, "")
}

func (app *Application) requestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email,max=254"`
	}
	if !app.readValidJSON(w, r, &req) {
		return
	}
	if err := app.Services.Auth.RequestMagicLink(r.Context(), req.Email); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Accepted(w, r, "Check your inbox for the sign-in link")
}

func (app *Application) verifyMagicLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if !app.readValidJSON(w, r, &req) {
		return
	}
	session, err := app.Services.Auth.VerifyMagicLink(r.Context(), req.Token)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"session": session}, "")
}

func (app *Application) getCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := app.Services.Auth.CurrentUser(r.Context())
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": user}, "")
}

func (app *Application) updateCurrentUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"display_name" validate:"required,max=50"`
	}
	if !app.readValidJSON(w, r, &req) {
		return
	}
	user, err := app.Services.Auth.UpdateDisplayName(r.Context(), req.DisplayName)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": user}, "")
}

func (app *Application) logout(w http.ResponseWriter, r *http.Request) {
	if err := app.Services.Auth.Logout(r.Context()); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) migrateUserData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldUserID string `json:"old_user_id" validate:"omitempty,uuid"`
		NewUserID string `json:"new_user_id" validate:"omitempty,uuid"`
	}
	if !app.readValidJSON(w, r, &req) {
		return
	}
	if err := app.Services.Migration.Migrate(r.Context(), req.OldUserID, req.NewUserID); err != nil {
		app.serviceError(w, r, err)
		return
	}
	callerID, _ := auth.CallerID(r.Context())
	app.Http.Ok(w, r, envelop{"user_id": callerID}, "User data migrated")
}
