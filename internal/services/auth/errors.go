package auth

import "errors"

type errInvalidData struct {
	msg string
}

func (e *errInvalidData) Error() string {
	return e.msg
}

func (e *errInvalidData) Is(target error) bool {
	_, ok := target.(*errInvalidData)
	return ok
}

func invalidData(msg string) error {
	return &errInvalidData{msg: msg}
}

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidData  = &errInvalidData{msg: "invalid data"}
	ErrUnauthorized = errors.New("invalid or expired session")
	ErrInvalidLink  = errors.New("sign-in link is invalid or has expired")
)
