package migration

import "errors"

var (
	ErrMigrationFailed = errors.New("failed to migrate user data")
	ErrForbidden       = errors.New("only the upgraded user may claim an anonymous user's data")
)
