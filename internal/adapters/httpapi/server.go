package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tripsync/tripsync-api/internal/app/access"
	"github.com/tripsync/tripsync-api/internal/app/apperr"
	"github.com/tripsync/tripsync-api/internal/app/trips"
	"github.com/tripsync/tripsync-api/internal/app/users"
	"github.com/tripsync/tripsync-api/internal/domain"
	"github.com/tripsync/tripsync-api/internal/platform/config"
	clockport "github.com/tripsync/tripsync-api/internal/ports/out/clock"
	"github.com/tripsync/tripsync-api/internal/ports/out/idempotency"
)

const (
	codeIdempotencyKeyReuse = "IDEMPOTENCY_KEY_REUSE"
	headerIdempotencyKey    = "Idempotency-Key"
)

// Server holds the HTTP handlers. Idem may be nil, which disables Idempotency-Key handling.
type Server struct {
	Users *users.Service
	Trips *trips.Service
	Idem  idempotency.Store
	Clock clockport.Clock

	// Environment is reported by /health; "production" hides internal error text.
	Environment string
}

func NewServer(usersSvc *users.Service, tripsSvc *trips.Service, idem idempotency.Store, clk clockport.Clock, environment string) *Server {
	return &Server{
		Users:       usersSvc,
		Trips:       tripsSvc,
		Idem:        idem,
		Clock:       clk,
		Environment: environment,
	}
}

func (s *Server) production() bool {
	return strings.EqualFold(s.Environment, config.EnvProduction)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err, s.production())
}

// caller returns the authenticated user; routes that use it sit behind the auth middleware.
func (s *Server) caller(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeAppError(w, r, errTokenRequired("missing authenticated user"))
	}
	return u, ok
}

func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	env := s.Environment
	if env == "" {
		env = "development"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "OK",
		Message:     "TripSync Backend is running",
		Timestamp:   s.Clock.Now().UTC(),
		Environment: env,
	})
}

func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	writeAppError(w, r, apperr.New(http.StatusNotFound, codeRouteNotFound, "Route not found",
		"The requested route "+r.URL.RequestURI()+" does not exist"))
}

// Auth.

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	// The admin denylist wins over field validation so that every admin-looking payload gets the
	// same 403.
	if err := access.CheckRegistration(access.RegistrationCandidate{
		Email:     body.Email,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Role:      domain.Role(body.Role),
	}); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validationError(body.Validate()); err != nil {
		s.fail(w, r, err)
		return
	}

	sess, err := s.Users.Register(r.Context(), users.RegisterInput{
		Email:         body.Email,
		Password:      body.Password,
		FirstName:     body.FirstName,
		LastName:      body.LastName,
		PhoneNumber:   body.PhoneNumber,
		Role:          domain.Role(body.Role),
		StudentID:     body.StudentID,
		LicenseNumber: body.LicenseNumber,
		VehicleNumber: body.VehicleNumber,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		Message: "User registered successfully",
		User:    userFromDomain(sess.User),
		Token:   sess.Token,
	})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validationError(body.Validate()); err != nil {
		s.fail(w, r, err)
		return
	}
	sess, err := s.Users.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Message: "Login successful",
		User:    userFromDomain(sess.User),
		Token:   sess.Token,
	})
}

func (s *Server) Verify(w http.ResponseWriter, r *http.Request) {
	me, ok := s.caller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Message: "Token is valid", User: userFromDomain(me)})
}

// Users.

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	me, ok := s.caller(w, r)
	if !ok {
		return
	}
	u, err := s.Users.GetProfile(r.Context(), me.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: userFromDomain(u)})
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	me, ok := s.caller(w, r)
	if !ok {
		return
	}
	var body updateProfileRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validationError(body.Validate()); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.Users.UpdateProfile(r.Context(), me.ID, profileInputFromRequest(body))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Message: "Profile updated successfully", User: userFromDomain(u)})
}

func (s *Server) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	me, ok := s.caller(w, r)
	if !ok {
		return
	}
	if err := s.Users.DeleteAccount(r.Context(), me.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Account deleted successfully"})
}

func (s *Server) SearchUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.caller(w, r); !ok {
		return
	}
	u, err := s.Users.SearchByEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userSearchResponse{User: userSummaryFromDomain(u)})
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	all, err := s.Users.ListAll(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]userDTO, 0, len(all))
	for _, u := range all {
		out = append(out, userFromDomain(u))
	}
	writeJSON(w, http.StatusOK, out)
}

// Trips.

func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	me, ok := s.caller(w, r)
	if !ok {
		return
	}
	ts, err := s.Trips.ListTrips(r.Context(), me.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]tripDTO, 0, len(ts))
	for _, t := range ts {
		out = append(out, tripSummaryFromDomain(t))
	}
	writeJSON(w, http.StatusOK, tripListResponse{Trips: out})
}

func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	me, ok := s.caller(w, r)
	if !ok {
		return
	}
	d, err := s.Trips.GetTrip(r.Context(), me.ID, tripIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripDetailsFromDomain(d))
}

func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	me, ok := s.caller(w, r)
	if !ok {
		return
	}
	var body createTripRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validationError(body.Validate()); err != nil {
		s.fail(w, r, err)
		return
	}

	// Idempotency handling:
	// - Replay if same user+key+route+bodyHash
	// - Reject if same user+key+route with different bodyHash (409)
	key := strings.TrimSpace(r.Header.Get(headerIdempotencyKey))
	useIdem := s.Idem != nil && key != ""
	var fp idempotency.Fingerprint
	if useIdem {
		fp = idempotency.Fingerprint{
			Key:      idempotency.Key(key),
			UserID:   me.ID,
			Method:   http.MethodPost,
			Route:    "/api/trips",
			BodyHash: hashCreateTripBody(body),
		}
		rec, storedHash, found, err := s.Idem.Get(r.Context(), fp)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if found {
			if storedHash != fp.BodyHash {
				writeAppError(w, r, apperr.Conflict(codeIdempotencyKeyReuse, "Idempotency key reuse",
					"idempotency key reuse with different payload"))
				return
			}
			w.Header().Set("Content-Type", rec.ContentType)
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.Body)
			return
		}
	}

	// Validation guarantees both dates parse.
	start, _ := domain.ParseDate(body.StartDate)
	end, _ := domain.ParseDate(body.EndDate)
	t, err := s.Trips.CreateTrip(r.Context(), me.ID, trips.CreateTripInput{
		Title:       body.Title,
		Description: body.Description,
		Destination: body.Destination,
		StartDate:   start,
		EndDate:     end,
		Budget:      body.Budget,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp, err := json.Marshal(tripResponse{Message: "Trip created successfully", Trip: tripFromDomain(t)})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if useIdem {
		if err := s.Idem.Put(r.Context(), fp, idempotency.Record{
			StatusCode:  http.StatusCreated,
			ContentType: "application/json",
			Body:        resp,
			CreatedAt:   s.Clock.Now().UTC(),
		}); err != nil {
			log.Printf("[%s] store idempotency record: %v", middleware.GetReqID(r.Context()), err)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(resp)
}

func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	me, ok := s.caller(w, r)
	if !ok {
		return
	}
	var body updateTripRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validationError(body.Validate()); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.Trips.UpdateTrip(r.Context(), me.ID, tripIDParam(r), updateTripInputFromRequest(body))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripResponse{Message: "Trip updated successfully", Trip: tripFromDomain(t)})
}

func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	me, ok := s.caller(w, r)
	if !ok {
		return
	}
	if err := s.Trips.DeleteTrip(r.Context(), me.ID, tripIDParam(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Trip deleted successfully"})
}

func (s *Server) AddParticipant(w http.ResponseWriter, r *http.Request) {
	me, ok := s.caller(w, r)
	if !ok {
		return
	}
	var body addParticipantRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	ps, err := s.Trips.AddParticipant(r.Context(), me.ID, tripIDParam(r), domain.UserID(body.UserID))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, participantsResponse{
		Message:      "Participant added successfully",
		Participants: participantsFromDomain(ps),
	})
}

func (s *Server) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	me, ok := s.caller(w, r)
	if !ok {
		return
	}
	target := domain.UserID(chi.URLParam(r, "userId"))
	ps, err := s.Trips.RemoveParticipant(r.Context(), me.ID, tripIDParam(r), target)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, participantsResponse{
		Message:      "Participant removed successfully",
		Participants: participantsFromDomain(ps),
	})
}

func tripIDParam(r *http.Request) domain.TripID {
	return domain.TripID(chi.URLParam(r, "id"))
}

// hashCreateTripBody canonicalizes fields with normalization semantics before hashing, so that
// "2024-08-15" and "2024-08-15T00:00:00Z" count as the same request.
func hashCreateTripBody(b createTripRequest) string {
	canon := b
	canon.Title = strings.TrimSpace(canon.Title)
	canon.Destination = strings.TrimSpace(canon.Destination)
	if d, err := domain.ParseDate(canon.StartDate); err == nil {
		canon.StartDate = d.Format(domain.DateLayout)
	}
	if d, err := domain.ParseDate(canon.EndDate); err == nil {
		canon.EndDate = d.Format(domain.DateLayout)
	}
	// A struct of strings and pointers always marshals.
	raw, _ := json.Marshal(canon)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
