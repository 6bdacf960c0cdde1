package triprepo

import (
	"context"
	"time"

	"github.com/tripsync/tripsync-api/internal/domain"
)

// Repository provides access to persisted trips and their participant memberships.
//
// Result ordering expectations:
// - ListForUser returns trips ordered by CreatedAt descending, then ID.
// - Participants are ordered by JoinedAt ascending, then UserID.
type Repository interface {
	// Create inserts a trip. ErrUserNotFound is returned when CreatedBy does not exist.
	Create(ctx context.Context, t domain.Trip) error
	// Save overwrites the stored trip fields (CreatedBy and CreatedAt are immutable).
	Save(ctx context.Context, t domain.Trip) error
	Delete(ctx context.Context, id domain.TripID) error

	// GetByID returns the trip joined with its creator and participants.
	GetByID(ctx context.Context, id domain.TripID) (domain.TripDetails, error)

	// ListForUser returns trips created by the user or in which the user participates.
	ListForUser(ctx context.Context, userID domain.UserID) ([]domain.TripSummary, error)

	// AddParticipant inserts the membership unless it already exists. The returned bool reports
	// whether a row was inserted; an existing membership is not an error.
	AddParticipant(ctx context.Context, tripID domain.TripID, userID domain.UserID, joinedAt time.Time) (bool, error)
	// RemoveParticipant deletes the membership and reports whether it existed.
	RemoveParticipant(ctx context.Context, tripID domain.TripID, userID domain.UserID) (bool, error)
	ListParticipants(ctx context.Context, tripID domain.TripID) ([]domain.Participant, error)

	// DeleteByCreator deletes every trip created by the user and returns how many were removed.
	DeleteByCreator(ctx context.Context, userID domain.UserID) (int, error)
	// RemoveUserFromAll deletes every membership held by the user and returns how many were removed.
	RemoveUserFromAll(ctx context.Context, userID domain.UserID) (int, error)
}
