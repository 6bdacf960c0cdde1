package triprepo

import "errors"

var (
	ErrNotFound      = errors.New("trip not found")
	ErrAlreadyExists = errors.New("trip already exists")

	// ErrUserNotFound indicates a referenced user (creator or participant) does not exist.
	ErrUserNotFound = errors.New("referenced user not found")
)
