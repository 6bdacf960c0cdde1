package trips

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/tripsync/tripsync-api/internal/app/access"
	"github.com/tripsync/tripsync-api/internal/app/apperr"
	"github.com/tripsync/tripsync-api/internal/domain"
	"github.com/tripsync/tripsync-api/internal/ports/out/clock"
	"github.com/tripsync/tripsync-api/internal/ports/out/triprepo"
)

type Service struct {
	trips triprepo.Repository
	clock clock.Clock

	newTripID func() domain.TripID
}

func NewService(tripsRepo triprepo.Repository, clk clock.Clock) *Service {
	return &Service{
		trips: tripsRepo,
		clock: clk,
		newTripID: func() domain.TripID {
			return domain.TripID(uuid.NewString())
		},
	}
}

// SetNewTripIDForTest overrides trip ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewTripIDForTest(fn func() domain.TripID) {
	if fn != nil {
		s.newTripID = fn
	}
}

// ListTrips returns trips the caller created or participates in, newest first.
func (s *Service) ListTrips(ctx context.Context, caller domain.UserID) ([]domain.TripSummary, error) {
	return s.trips.ListForUser(ctx, caller)
}

// GetTrip returns the trip with its participants. An unknown trip is 404; a trip the caller may
// not see is 403 and carries no trip data.
func (s *Service) GetTrip(ctx context.Context, caller domain.UserID, tripID domain.TripID) (domain.TripDetails, error) {
	d, err := s.load(ctx, tripID)
	if err != nil {
		return domain.TripDetails{}, err
	}
	if err := access.Authorize(access.OpView, d, caller); err != nil {
		return domain.TripDetails{}, err
	}
	return d, nil
}

func (s *Service) CreateTrip(ctx context.Context, caller domain.UserID, in CreateTripInput) (domain.Trip, error) {
	title := strings.TrimSpace(in.Title)
	if err := checkTitle(title); err != nil {
		return domain.Trip{}, err
	}
	destination := strings.TrimSpace(in.Destination)
	if err := checkDestination(destination); err != nil {
		return domain.Trip{}, err
	}
	start, end := domain.DateOnly(in.StartDate), domain.DateOnly(in.EndDate)
	if !end.After(start) {
		return domain.Trip{}, errInvalid("End date must be after start date", "endDate", "must be after startDate")
	}
	if in.Budget != nil {
		if err := checkBudget(*in.Budget); err != nil {
			return domain.Trip{}, err
		}
	}

	now := s.clock.Now().UTC()
	t := domain.Trip{
		ID:          s.newTripID(),
		Title:       title,
		Description: in.Description,
		Destination: destination,
		StartDate:   start,
		EndDate:     end,
		Budget:      in.Budget,
		CreatedBy:   caller,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.trips.Create(ctx, t); err != nil {
		if errors.Is(err, triprepo.ErrUserNotFound) {
			return domain.Trip{}, apperr.Unauthorized(apperr.CodeUnauthorized, "Invalid token", "User not found")
		}
		return domain.Trip{}, err
	}
	return t, nil
}

// UpdateTrip applies a partial update. Dates are compared only when both are supplied in the same
// request; a single supplied date is not checked against the stored one.
func (s *Service) UpdateTrip(ctx context.Context, caller domain.UserID, tripID domain.TripID, in UpdateTripInput) (domain.Trip, error) {
	d, err := s.load(ctx, tripID)
	if err != nil {
		return domain.Trip{}, err
	}
	if err := access.Authorize(access.OpUpdate, d, caller); err != nil {
		return domain.Trip{}, err
	}
	if in.empty() {
		return domain.Trip{}, apperr.Validation("No fields to update", nil)
	}

	t := d.Trip
	if in.Title.IsSpecified() {
		v := strings.TrimSpace(in.Title.Value())
		if in.Title.IsNull() {
			return domain.Trip{}, errInvalid("invalid title", "title", "cannot be null")
		}
		if err := checkTitle(v); err != nil {
			return domain.Trip{}, err
		}
		t.Title = v
	}
	if in.Destination.IsSpecified() {
		v := strings.TrimSpace(in.Destination.Value())
		if in.Destination.IsNull() {
			return domain.Trip{}, errInvalid("invalid destination", "destination", "cannot be null")
		}
		if err := checkDestination(v); err != nil {
			return domain.Trip{}, err
		}
		t.Destination = v
	}
	if in.Description.IsSpecified() {
		if in.Description.IsNull() {
			t.Description = nil
		} else {
			v := in.Description.Value()
			t.Description = &v
		}
	}
	if in.StartDate.IsSpecified() {
		if in.StartDate.IsNull() {
			return domain.Trip{}, errInvalid("invalid startDate", "startDate", "cannot be null")
		}
		t.StartDate = domain.DateOnly(in.StartDate.Value())
	}
	if in.EndDate.IsSpecified() {
		if in.EndDate.IsNull() {
			return domain.Trip{}, errInvalid("invalid endDate", "endDate", "cannot be null")
		}
		t.EndDate = domain.DateOnly(in.EndDate.Value())
	}
	if in.StartDate.IsSpecified() && in.EndDate.IsSpecified() && !t.EndDate.After(t.StartDate) {
		return domain.Trip{}, errInvalid("End date must be after start date", "endDate", "must be after startDate")
	}
	if in.Budget.IsSpecified() {
		if in.Budget.IsNull() {
			t.Budget = nil
		} else {
			v := in.Budget.Value()
			if err := checkBudget(v); err != nil {
				return domain.Trip{}, err
			}
			t.Budget = &v
		}
	}

	t.UpdatedAt = s.clock.Now().UTC()
	if err := s.trips.Save(ctx, t); err != nil {
		if errors.Is(err, triprepo.ErrNotFound) {
			return domain.Trip{}, errTripNotFound()
		}
		return domain.Trip{}, err
	}
	return t, nil
}

// DeleteTrip permanently removes the trip and its memberships.
func (s *Service) DeleteTrip(ctx context.Context, caller domain.UserID, tripID domain.TripID) error {
	d, err := s.load(ctx, tripID)
	if err != nil {
		return err
	}
	if err := access.Authorize(access.OpDelete, d, caller); err != nil {
		return err
	}
	if err := s.trips.Delete(ctx, tripID); err != nil {
		if errors.Is(err, triprepo.ErrNotFound) {
			return errTripNotFound()
		}
		return err
	}
	return nil
}

// AddParticipant adds target to the trip. Adding an existing participant succeeds without creating
// a second membership. The returned list is read after the insert, not atomically with it.
func (s *Service) AddParticipant(ctx context.Context, caller domain.UserID, tripID domain.TripID, target domain.UserID) ([]domain.Participant, error) {
	target = domain.UserID(strings.TrimSpace(string(target)))
	if target == "" {
		return nil, apperr.MissingParameter("userId is required")
	}
	d, err := s.load(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(access.OpAddParticipant, d, caller); err != nil {
		return nil, err
	}

	if _, err := s.trips.AddParticipant(ctx, tripID, target, s.clock.Now().UTC()); err != nil {
		switch {
		case errors.Is(err, triprepo.ErrUserNotFound):
			return nil, errUserNotFound()
		case errors.Is(err, triprepo.ErrNotFound):
			return nil, errTripNotFound()
		default:
			return nil, err
		}
	}
	return s.trips.ListParticipants(ctx, tripID)
}

// RemoveParticipant removes target from the trip. A target that is not a participant is 404 and
// leaves the list unchanged.
func (s *Service) RemoveParticipant(ctx context.Context, caller domain.UserID, tripID domain.TripID, target domain.UserID) ([]domain.Participant, error) {
	d, err := s.load(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(access.OpRemoveParticipant, d, caller); err != nil {
		return nil, err
	}

	removed, err := s.trips.RemoveParticipant(ctx, tripID, target)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, errParticipantNotFound()
	}
	return s.trips.ListParticipants(ctx, tripID)
}

func (s *Service) load(ctx context.Context, tripID domain.TripID) (domain.TripDetails, error) {
	d, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, triprepo.ErrNotFound) {
			return domain.TripDetails{}, errTripNotFound()
		}
		return domain.TripDetails{}, err
	}
	return d, nil
}
