package trips

import (
	"fmt"
	"unicode/utf8"

	"github.com/tripsync/tripsync-api/internal/app/apperr"
	"github.com/tripsync/tripsync-api/internal/domain"
)

const (
	CodeTripNotFound        = "TRIP_NOT_FOUND"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeParticipantNotFound = "PARTICIPANT_NOT_FOUND"
)

func errTripNotFound() *apperr.Error {
	return apperr.NotFound(CodeTripNotFound, "Trip not found", "The requested trip does not exist")
}

func errUserNotFound() *apperr.Error {
	return apperr.NotFound(CodeUserNotFound, "User not found", "The user to add does not exist")
}

func errParticipantNotFound() *apperr.Error {
	return apperr.NotFound(CodeParticipantNotFound, "Participant not found", "The user is not a participant in this trip")
}

func errInvalid(message, field, reason string) *apperr.Error {
	return apperr.Validation(message, map[string]any{field: reason})
}

// checkTitle and checkDestination take the trimmed value, which is what gets stored.
func checkTitle(v string) error {
	if utf8.RuneCountInString(v) < domain.TitleMinRunes {
		return errInvalid("invalid title", "title", fmt.Sprintf("must be at least %d characters", domain.TitleMinRunes))
	}
	return nil
}

func checkDestination(v string) error {
	if utf8.RuneCountInString(v) < domain.DestinationMinRunes {
		return errInvalid("invalid destination", "destination", fmt.Sprintf("must be at least %d characters", domain.DestinationMinRunes))
	}
	return nil
}

func checkBudget(v float64) error {
	if err := domain.CheckBudget(v); err != nil {
		return errInvalid("invalid budget", "budget", err.Error())
	}
	return nil
}
