package userrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tripsync/tripsync-api/internal/adapters/postgres"
	"github.com/tripsync/tripsync-api/internal/domain"
	"github.com/tripsync/tripsync-api/internal/ports/out/userrepo"
)

const userColumns = `
	external_id,
	email,
	password_hash,
	first_name,
	last_name,
	phone_number,
	role,
	student_id,
	license_number,
	vehicle_number,
	created_at,
	updated_at`

// Repo is a Postgres implementation of userrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, u domain.User) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(u.ID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		id,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.PhoneNumber,
		string(u.Role),
		u.StudentID,
		u.LicenseNumber,
		u.VehicleNumber,
		u.CreatedAt.UTC(),
		u.UpdatedAt.UTC(),
	)
	return mapWriteError(err)
}

func (r *Repo) Update(ctx context.Context, u domain.User) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(u.ID))
	if err != nil {
		return userrepo.ErrNotFound
	}

	ct, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $2,
		    password_hash = $3,
		    first_name = $4,
		    last_name = $5,
		    phone_number = $6,
		    role = $7,
		    student_id = $8,
		    license_number = $9,
		    vehicle_number = $10,
		    updated_at = $11
		WHERE external_id = $1
	`,
		id,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.PhoneNumber,
		string(u.Role),
		u.StudentID,
		u.LicenseNumber,
		u.VehicleNumber,
		u.UpdatedAt.UTC(),
	)
	if err != nil {
		return mapWriteError(err)
	}
	if ct.RowsAffected() == 0 {
		return userrepo.ErrNotFound
	}
	return nil
}

// Delete removes the user. Owned trips and participant rows go with it (ON DELETE CASCADE).
func (r *Repo) Delete(ctx context.Context, id domain.UserID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return userrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM users WHERE external_id = $1`, uid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return userrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	if r.pool == nil {
		return domain.User{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.User{}, userrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = $1`, uid)
	return scanUser(row)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	if r.pool == nil {
		return domain.User{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row)
}

func (r *Repo) List(ctx context.Context) ([]domain.User, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, external_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
		switch pe.ConstraintName {
		case "users_email_lower_unique":
			return userrepo.ErrEmailAlreadyExists
		case "users_external_id_unique":
			return userrepo.ErrAlreadyExists
		}
	}
	return err
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (domain.User, error) {
	var (
		u    domain.User
		id   uuid.UUID
		role string
	)
	err := row.Scan(
		&id,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.PhoneNumber,
		&role,
		&u.StudentID,
		&u.LicenseNumber,
		&u.VehicleNumber,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, userrepo.ErrNotFound
		}
		return domain.User{}, err
	}
	u.ID = domain.UserID(id.String())
	u.Role = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}
