package users

import (
	"net/http"

	"github.com/tripsync/tripsync-api/internal/app/apperr"
)

const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeUserExists         = "USER_EXISTS"
	CodeUserNotFound       = "USER_NOT_FOUND"
)

func errInvalidCredentials() *apperr.Error {
	return apperr.Unauthorized(CodeInvalidCredentials, "Invalid credentials", "Email or password is incorrect")
}

func errInvalidToken() *apperr.Error {
	return apperr.Unauthorized(CodeInvalidToken, "Invalid token", "Token is invalid or expired")
}

func errUserExists() *apperr.Error {
	return apperr.Conflict(CodeUserExists, "User already exists", "A user with this email already exists")
}

func errUserNotFound(message string) *apperr.Error {
	return apperr.New(http.StatusNotFound, CodeUserNotFound, "User not found", message)
}
