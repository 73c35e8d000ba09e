package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrForbidden    = errors.New("api: forbidden")
	ErrNotFound     = errors.New("api: not found")
	ErrInvalid      = errors.New("api: invalid request")
	// ErrRemoteWrite marks a failed insert, update or delete.
	ErrRemoteWrite = errors.New("api: remote write failed")
)

// Error is a non 2xx answer of the backend.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s %s: %d %s %v", e.Method, e.Path, e.Status, e.Message, e.Fields)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *Error) Unwrap() []error {
	var errs []error
	switch e.Status {
	case http.StatusUnauthorized:
		errs = append(errs, ErrUnauthorized)
	case http.StatusForbidden:
		errs = append(errs, ErrForbidden)
	case http.StatusNotFound:
		errs = append(errs, ErrNotFound)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		errs = append(errs, ErrInvalid)
	}
	if e.Method != http.MethodGet {
		errs = append(errs, ErrRemoteWrite)
	}
	return errs
}
