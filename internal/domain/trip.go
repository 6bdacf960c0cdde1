package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	TitleMinRunes       = 3
	DestinationMinRunes = 2

	// MaxBudget is the largest value the trips.budget NUMERIC(12, 2) column holds.
	MaxBudget = 9_999_999_999.99
)

var (
	ErrBudgetNotPositive = errors.New("must be greater than 0")
	ErrBudgetTooLarge    = errors.New("must be at most 9999999999.99")
	ErrBudgetPrecision   = errors.New("must have at most 2 decimal places")
)

// CheckBudget reports why v cannot be stored as a trip budget. Budgets are whole cents so every
// store returns exactly the value it was given.
func CheckBudget(v float64) error {
	switch {
	case !(v > 0):
		return ErrBudgetNotPositive
	case v > MaxBudget:
		return ErrBudgetTooLarge
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > 2 {
		return ErrBudgetPrecision
	}
	return nil
}

// Trip is the persisted trip record. StartDate and EndDate carry date-only semantics
// (midnight UTC).
type Trip struct {
	ID          TripID
	Title       string
	Description *string
	Destination string

	StartDate time.Time
	EndDate   time.Time
	Budget    *float64

	CreatedBy UserID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TripSummary is a trip as it appears in list views.
type TripSummary struct {
	Trip
	CreatorName string
}

// Participant is a user with read access to a trip.
type Participant struct {
	UserID    UserID
	Email     string
	FirstName string
	LastName  string
	JoinedAt  time.Time
}

type TripDetails struct {
	Trip         Trip
	CreatorName  string
	CreatorEmail string
	Participants []Participant
}

// HasParticipant reports whether id is in the participant set.
func (d TripDetails) HasParticipant(id UserID) bool {
	for _, p := range d.Participants {
		if p.UserID == id {
			return true
		}
	}
	return false
}
