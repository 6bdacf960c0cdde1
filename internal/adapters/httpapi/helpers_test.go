package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	memclock "github.com/tripsync/tripsync-api/internal/adapters/memory/clock"
	memidempotency "github.com/tripsync/tripsync-api/internal/adapters/memory/idempotency"
	memtriprepo "github.com/tripsync/tripsync-api/internal/adapters/memory/triprepo"
	memuserrepo "github.com/tripsync/tripsync-api/internal/adapters/memory/userrepo"
	"github.com/tripsync/tripsync-api/internal/app/trips"
	"github.com/tripsync/tripsync-api/internal/app/users"
	"github.com/tripsync/tripsync-api/internal/platform/auth/password"
	"github.com/tripsync/tripsync-api/internal/platform/auth/token"
	"github.com/tripsync/tripsync-api/internal/platform/config"
)

type testAPI struct {
	h      http.Handler
	users  *memuserrepo.Repo
	trips  *memtriprepo.Repo
	clock  *memclock.ManualClock
	tokens *token.Service
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Secret:   "httpapi-test-secret-0123456789abcdef",
		Issuer:   "tripsync-test",
		TokenTTL: time.Hour,
	}
}

func newTestAPI(t *testing.T, configure ...func(*RouterOptions)) *testAPI {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	userRepo := memuserrepo.NewRepo()
	tripRepo := memtriprepo.NewRepo(userRepo)
	tokens := token.NewWithClock(testAuthConfig(), clk)

	usersSvc := users.NewService(userRepo, tripRepo, password.NewHasher(bcrypt.MinCost), tokens, clk)
	tripsSvc := trips.NewService(tripRepo, clk)
	api := NewServer(usersSvc, tripsSvc, memidempotency.NewStore(), clk, "test")

	opts := RouterOptions{AuthMiddleware: NewAuthMiddleware(usersSvc, false)}
	for _, fn := range configure {
		fn(&opts)
	}
	return &testAPI{
		h:      NewRouter(api, opts),
		users:  userRepo,
		trips:  tripRepo,
		clock:  clk,
		tokens: tokens,
	}
}

func (a *testAPI) do(t *testing.T, method, path, bearer string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

type registered struct {
	ID    string
	Token string
}

func (a *testAPI) register(t *testing.T, email, first, last string) registered {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":     email,
		"password":  "password123",
		"firstName": first,
		"lastName":  last,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status=%d body=%s", email, rec.Code, rec.Body.String())
	}
	resp := mustDecode[sessionResponse](t, rec)
	return registered{ID: resp.User.ID, Token: resp.Token}
}

func mustDecode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, rec.Body.String())
	}
	return out
}

type errorBody struct {
	Error     string         `json:"error"`
	Message   string         `json:"message"`
	Code      string         `json:"code"`
	Details   map[string]any `json:"details"`
	RequestID string         `json:"requestId"`
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) errorBody {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status=%d want=%d body=%s", rec.Code, status, rec.Body.String())
	}
	got := mustDecode[errorBody](t, rec)
	if got.Code != code {
		t.Fatalf("code=%q want=%q body=%s", got.Code, code, rec.Body.String())
	}
	return got
}
