package triprepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tripsync/tripsync-api/internal/adapters/postgres"
	"github.com/tripsync/tripsync-api/internal/domain"
	"github.com/tripsync/tripsync-api/internal/ports/out/triprepo"
)

const tripColumns = `
	t.external_id,
	t.title,
	t.description,
	t.destination,
	t.start_date,
	t.end_date,
	t.budget,
	u.external_id,
	t.created_at,
	t.updated_at`

// Repo is a Postgres implementation of triprepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, t domain.Trip) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(t.ID))
	if err != nil {
		return fmt.Errorf("invalid trip id: %w", err)
	}
	creatorUUID, err := uuid.Parse(string(t.CreatedBy))
	if err != nil {
		return triprepo.ErrUserNotFound
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		creatorPK, err := userPK(ctx, tx, creatorUUID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO trips (
				external_id,
				title,
				description,
				destination,
				start_date,
				end_date,
				budget,
				created_by,
				created_at,
				updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			tripUUID,
			t.Title,
			t.Description,
			t.Destination,
			domain.DateOnly(t.StartDate),
			domain.DateOnly(t.EndDate),
			t.Budget,
			creatorPK,
			t.CreatedAt.UTC(),
			t.UpdatedAt.UTC(),
		)
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok {
				switch {
				case pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "trips_external_id_unique":
					return triprepo.ErrAlreadyExists
				case pe.Code == postgres.ForeignKeyViolationCode:
					return triprepo.ErrUserNotFound
				}
			}
			return err
		}
		return nil
	})
}

func (r *Repo) Save(ctx context.Context, t domain.Trip) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(t.ID))
	if err != nil {
		return triprepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE trips
		SET title = $2,
		    description = $3,
		    destination = $4,
		    start_date = $5,
		    end_date = $6,
		    budget = $7,
		    updated_at = $8
		WHERE external_id = $1
	`,
		tripUUID,
		t.Title,
		t.Description,
		t.Destination,
		domain.DateOnly(t.StartDate),
		domain.DateOnly(t.EndDate),
		t.Budget,
		t.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return triprepo.ErrNotFound
	}
	return nil
}

// Delete removes the trip; its participant rows go with it (ON DELETE CASCADE).
func (r *Repo) Delete(ctx context.Context, id domain.TripID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(id))
	if err != nil {
		return triprepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM trips WHERE external_id = $1`, tripUUID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return triprepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TripID) (domain.TripDetails, error) {
	if r.pool == nil {
		return domain.TripDetails{}, errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(id))
	if err != nil {
		return domain.TripDetails{}, triprepo.ErrNotFound
	}

	var (
		out                 domain.TripDetails
		firstName, lastName string
	)
	row := r.pool.QueryRow(ctx, `
		SELECT `+tripColumns+`,
			u.first_name,
			u.last_name,
			u.email
		FROM trips t
		JOIN users u ON u.id = t.created_by
		WHERE t.external_id = $1
	`, tripUUID)
	trip, err := scanTrip(row, &firstName, &lastName, &out.CreatorEmail)
	if err != nil {
		return domain.TripDetails{}, err
	}
	out.Trip = trip
	out.CreatorName = domain.NormalizeHumanName(firstName + " " + lastName)

	ps, err := r.ListParticipants(ctx, id)
	if err != nil {
		return domain.TripDetails{}, err
	}
	out.Participants = ps
	return out, nil
}

func (r *Repo) ListForUser(ctx context.Context, userID domain.UserID) ([]domain.TripSummary, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(userID))
	if err != nil {
		return []domain.TripSummary{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+tripColumns+`,
			u.first_name,
			u.last_name
		FROM trips t
		JOIN users u ON u.id = t.created_by
		WHERE u.external_id = $1
		   OR EXISTS (
				SELECT 1
				FROM trip_participants tp
				JOIN users pu ON pu.id = tp.user_id
				WHERE tp.trip_id = t.id
				  AND pu.external_id = $1
		   )
		ORDER BY t.created_at DESC, t.external_id ASC
	`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.TripSummary, 0)
	for rows.Next() {
		var firstName, lastName string
		trip, err := scanTrip(rows, &firstName, &lastName)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.TripSummary{
			Trip:        trip,
			CreatorName: domain.NormalizeHumanName(firstName + " " + lastName),
		})
	}
	return out, rows.Err()
}

func (r *Repo) AddParticipant(ctx context.Context, tripID domain.TripID, userID domain.UserID, joinedAt time.Time) (bool, error) {
	if r.pool == nil {
		return false, errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(tripID))
	if err != nil {
		return false, triprepo.ErrNotFound
	}
	userUUID, err := uuid.Parse(string(userID))
	if err != nil {
		return false, triprepo.ErrUserNotFound
	}

	var inserted bool
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var tripPK int64
		if err := tx.QueryRow(ctx, `SELECT id FROM trips WHERE external_id = $1`, tripUUID).Scan(&tripPK); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return triprepo.ErrNotFound
			}
			return err
		}
		uPK, err := userPK(ctx, tx, userUUID)
		if err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, `
			INSERT INTO trip_participants (trip_id, user_id, joined_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (trip_id, user_id) DO NOTHING
		`, tripPK, uPK, joinedAt.UTC())
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode {
				return triprepo.ErrNotFound
			}
			return err
		}
		inserted = ct.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *Repo) RemoveParticipant(ctx context.Context, tripID domain.TripID, userID domain.UserID) (bool, error) {
	if r.pool == nil {
		return false, errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(tripID))
	if err != nil {
		return false, nil
	}
	userUUID, err := uuid.Parse(string(userID))
	if err != nil {
		return false, nil
	}
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM trip_participants tp
		USING trips t, users u
		WHERE tp.trip_id = t.id
		  AND tp.user_id = u.id
		  AND t.external_id = $1
		  AND u.external_id = $2
	`, tripUUID, userUUID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *Repo) ListParticipants(ctx context.Context, tripID domain.TripID) ([]domain.Participant, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(tripID))
	if err != nil {
		return []domain.Participant{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT u.external_id, u.email, u.first_name, u.last_name, tp.joined_at
		FROM trip_participants tp
		JOIN trips t ON t.id = tp.trip_id
		JOIN users u ON u.id = tp.user_id
		WHERE t.external_id = $1
		ORDER BY tp.joined_at ASC, u.external_id ASC
	`, tripUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Participant, 0)
	for rows.Next() {
		var (
			p  domain.Participant
			id uuid.UUID
		)
		if err := rows.Scan(&id, &p.Email, &p.FirstName, &p.LastName, &p.JoinedAt); err != nil {
			return nil, err
		}
		p.UserID = domain.UserID(id.String())
		p.JoinedAt = p.JoinedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteByCreator(ctx context.Context, userID domain.UserID) (int, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(userID))
	if err != nil {
		return 0, nil
	}
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM trips
		WHERE created_by = (SELECT id FROM users WHERE external_id = $1)
	`, uid)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

func (r *Repo) RemoveUserFromAll(ctx context.Context, userID domain.UserID) (int, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(userID))
	if err != nil {
		return 0, nil
	}
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM trip_participants
		WHERE user_id = (SELECT id FROM users WHERE external_id = $1)
	`, uid)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

func userPK(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error) {
	var pk int64
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE external_id = $1`, id).Scan(&pk); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, triprepo.ErrUserNotFound
		}
		return 0, err
	}
	return pk, nil
}

// scanTrip reads tripColumns followed by any extra joined columns.
func scanTrip(row interface {
	Scan(dest ...any) error
}, extra ...any) (domain.Trip, error) {
	var (
		t         domain.Trip
		tripID    uuid.UUID
		creatorID uuid.UUID
	)
	dest := []any{
		&tripID,
		&t.Title,
		&t.Description,
		&t.Destination,
		&t.StartDate,
		&t.EndDate,
		&t.Budget,
		&creatorID,
		&t.CreatedAt,
		&t.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, triprepo.ErrNotFound
		}
		return domain.Trip{}, err
	}
	t.ID = domain.TripID(tripID.String())
	t.CreatedBy = domain.UserID(creatorID.String())
	t.StartDate = domain.DateOnly(t.StartDate)
	t.EndDate = domain.DateOnly(t.EndDate)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}
