package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tripsync/tripsync-api/internal/app/access"
	"github.com/tripsync/tripsync-api/internal/app/apperr"
	"github.com/tripsync/tripsync-api/internal/domain"
	clockport "github.com/tripsync/tripsync-api/internal/ports/out/clock"
	"github.com/tripsync/tripsync-api/internal/ports/out/credentials"
	"github.com/tripsync/tripsync-api/internal/ports/out/triprepo"
	"github.com/tripsync/tripsync-api/internal/ports/out/userrepo"
)

type Service struct {
	users  userrepo.Repository
	trips  triprepo.Repository
	hasher credentials.PasswordHasher
	tokens credentials.TokenService
	clk    clockport.Clock

	newUserID func() domain.UserID
}

func NewService(
	usersRepo userrepo.Repository,
	tripsRepo triprepo.Repository,
	hasher credentials.PasswordHasher,
	tokens credentials.TokenService,
	clk clockport.Clock,
) *Service {
	return &Service{
		users:  usersRepo,
		trips:  tripsRepo,
		hasher: hasher,
		tokens: tokens,
		clk:    clk,
		newUserID: func() domain.UserID {
			return domain.UserID(uuid.NewString())
		},
	}
}

// SetNewUserIDForTest overrides user ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewUserIDForTest(fn func() domain.UserID) {
	if fn != nil {
		s.newUserID = fn
	}
}

// Register creates a self-service account and signs the new user in.
//
// Checks run in this order: admin denylist (403), input invariants (400), duplicate email (409).
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	email := domain.NormalizeEmail(in.Email)
	first := domain.NormalizeHumanName(in.FirstName)
	last := domain.NormalizeHumanName(in.LastName)
	role := domain.Role(strings.ToLower(strings.TrimSpace(string(in.Role))))

	if err := access.CheckRegistration(access.RegistrationCandidate{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Role:      role,
	}); err != nil {
		return Session{}, err
	}

	if role == "" {
		role = domain.RoleStudent
	}
	details := map[string]any{}
	if email == "" {
		details["email"] = "is required"
	}
	if in.Password == "" {
		details["password"] = "is required"
	}
	if first == "" {
		details["firstName"] = "is required"
	}
	if last == "" {
		details["lastName"] = "is required"
	}
	if role != domain.RoleStudent && role != domain.RoleDriver {
		details["role"] = "must be one of: student, driver"
	}
	if len(details) > 0 {
		return Session{}, apperr.Validation("Invalid registration data", details)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return Session{}, errUserExists()
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return Session{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.clk.Now().UTC()
	u := domain.User{
		ID:            s.newUserID(),
		Email:         email,
		PasswordHash:  hash,
		FirstName:     first,
		LastName:      last,
		PhoneNumber:   trimmedOrNil(in.PhoneNumber),
		Role:          role,
		StudentID:     trimmedOrNil(in.StudentID),
		LicenseNumber: trimmedOrNil(in.LicenseNumber),
		VehicleNumber: trimmedOrNil(in.VehicleNumber),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrEmailAlreadyExists) {
			return Session{}, errUserExists()
		}
		return Session{}, err
	}

	token, err := s.tokens.Issue(ctx, u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{User: u, Token: token}, nil
}

// Login verifies credentials. Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return Session{}, errInvalidCredentials()
		}
		return Session{}, err
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		if errors.Is(err, credentials.ErrPasswordMismatch) {
			return Session{}, errInvalidCredentials()
		}
		return Session{}, err
	}

	token, err := s.tokens.Issue(ctx, u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{User: u, Token: token}, nil
}

// Authenticate resolves a bearer token to its user. Every failure is the same 401.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.User, error) {
	id, err := s.tokens.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, credentials.ErrInvalidToken) {
			return domain.User{}, errInvalidToken()
		}
		return domain.User{}, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.User{}, errInvalidToken()
		}
		return domain.User{}, err
	}
	return u, nil
}

func (s *Service) GetProfile(ctx context.Context, id domain.UserID) (domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.User{}, errUserNotFound("User profile does not exist")
		}
		return domain.User{}, err
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id domain.UserID, in UpdateProfileInput) (domain.User, error) {
	if in.empty() {
		return domain.User{}, apperr.Validation("No fields to update", nil)
	}
	u, err := s.GetProfile(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if in.FirstName.IsSpecified() {
		v := domain.NormalizeHumanName(in.FirstName.Value())
		if in.FirstName.IsNull() || v == "" {
			return domain.User{}, apperr.Validation("invalid firstName", map[string]any{"firstName": "cannot be null or empty"})
		}
		u.FirstName = v
	}
	if in.LastName.IsSpecified() {
		v := domain.NormalizeHumanName(in.LastName.Value())
		if in.LastName.IsNull() || v == "" {
			return domain.User{}, apperr.Validation("invalid lastName", map[string]any{"lastName": "cannot be null or empty"})
		}
		u.LastName = v
	}
	if in.PhoneNumber.IsSpecified() {
		if in.PhoneNumber.IsNull() {
			u.PhoneNumber = nil
		} else {
			v := in.PhoneNumber.Value()
			u.PhoneNumber = trimmedOrNil(&v)
		}
	}

	u.UpdatedAt = s.clk.Now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.User{}, errUserNotFound("User profile does not exist")
		}
		return domain.User{}, err
	}
	return u, nil
}

// DeleteAccount removes the user together with the trips they created and their memberships in
// other trips.
func (s *Service) DeleteAccount(ctx context.Context, id domain.UserID) error {
	if _, err := s.trips.RemoveUserFromAll(ctx, id); err != nil {
		return fmt.Errorf("remove memberships: %w", err)
	}
	if _, err := s.trips.DeleteByCreator(ctx, id); err != nil {
		return fmt.Errorf("delete owned trips: %w", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return errUserNotFound("User profile does not exist")
		}
		return err
	}
	return nil
}

func (s *Service) SearchByEmail(ctx context.Context, email string) (domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.User{}, apperr.MissingParameter("Email query parameter is required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.User{}, errUserNotFound("No user found with this email")
		}
		return domain.User{}, err
	}
	return u, nil
}

func (s *Service) ListAll(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
