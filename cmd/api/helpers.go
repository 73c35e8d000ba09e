package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"cinepwa/proj/internal/clients/tmdb"
	"cinepwa/proj/internal/lib/validator"
	"cinepwa/proj/internal/services/auth"
	"cinepwa/proj/internal/services/lists"
	"cinepwa/proj/internal/services/migration"
	"cinepwa/proj/internal/services/sharing"
	"cinepwa/proj/internal/services/watchlist"
	"cinepwa/proj/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (app *Application) extractIntParam(w http.ResponseWriter, r *http.Request, name string) (id int, extracted bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		app.Http.BadRequest(w, r, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	if id < 1 {
		app.Http.BadRequest(w, r, fmt.Sprintf("%s must be greater than zero", name))
		return 0, false
	}
	return id, true
}

// extractUUIDParam answers 404 with notFound for ids that are not uuids, since
// no row can carry them.
func (app *Application) extractUUIDParam(w http.ResponseWriter, r *http.Request, name string, notFound error) (string, bool) {
	id := chi.URLParam(r, name)
	if err := uuid.Validate(id); err != nil {
		app.Http.NotFound(w, r, notFound.Error())
		return "", false
	}
	return id, true
}

func (app *Application) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	src := http.MaxBytesReader(w, r.Body, int64(maxBytes))
	defer io.Copy(io.Discard, src)
	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err != nil {
		return handleJsonErr(err)
	}
	err = dec.Decode(&struct{}{})
	if err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// readValidJSON decodes and validates the body, answering 400/422 itself.
func (app *Application) readValidJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := app.readJSON(w, r, dst); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return false
	}
	if errs := validator.ValidateStruct(app.validator, dst); errs != nil {
		app.Http.UnprocessableEntity(w, r, errs)
		return false
	}
	return true
}

func handleJsonErr(err error) error {
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var invalidUnmarshalError *json.InvalidUnmarshalError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("body contains badly-formed JSON")

	case errors.As(err, &unmarshalTypeError):
		if unmarshalTypeError.Field != "" {
			return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
		}
		return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

	case errors.Is(err, io.EOF):
		return errors.New("body must not be empty")

	case errors.As(err, &maxBytesError):
		return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

	case errors.As(err, &invalidUnmarshalError):
		panic(err)
	default:
		return err
	}
}

// serviceError maps the sentinel errors of the services to responses.
func (app *Application) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		app.Http.Unauthorized(w, r, err.Error())
	case errors.Is(err, auth.ErrInvalidLink):
		app.Http.Unauthorized(w, r, err.Error())
	case errors.Is(err, auth.ErrInvalidData):
		app.Http.UnprocessableEntity(w, r, map[string]string{"email": err.Error()})
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, lists.ErrListNotFound),
		errors.Is(err, lists.ErrItemNotFound),
		errors.Is(err, lists.ErrMemberNotFound),
		errors.Is(err, watchlist.ErrNotInWatchlist),
		errors.Is(err, watchlist.ErrNotWatched),
		errors.Is(err, watchlist.ErrSeriesNotFound),
		errors.Is(err, tmdb.ErrNotFound):
		app.Http.NotFound(w, r, err.Error())
	case errors.Is(err, lists.ErrNotMember),
		errors.Is(err, lists.ErrForbidden),
		errors.Is(err, migration.ErrForbidden):
		app.Http.Forbidden(w, r, err.Error())
	case errors.Is(err, sharing.ErrDecode):
		app.Http.BadRequest(w, r, err.Error())
	case errors.Is(err, storage.ErrConflict):
		app.Http.Conflict(w, r, err.Error())
	case errors.Is(err, migration.ErrMigrationFailed):
		app.Http.ServerError(w, r, err, migration.ErrMigrationFailed.Error())
	default:
		var apiErr *tmdb.APIError
		if errors.As(err, &apiErr) {
			app.Http.BadGateway(w, r, err)
			return
		}
		app.Http.ServerError(w, r, err, "")
	}
}

func (app *Application) validate(obj any) map[string]string {
	return validator.ValidateStruct(app.validator, obj)
}
