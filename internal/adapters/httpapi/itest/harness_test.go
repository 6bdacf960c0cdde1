package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tripsync/tripsync-api/internal/adapters/httpapi"
	memclock "github.com/tripsync/tripsync-api/internal/adapters/memory/clock"
	memidempotency "github.com/tripsync/tripsync-api/internal/adapters/memory/idempotency"
	memtriprepo "github.com/tripsync/tripsync-api/internal/adapters/memory/triprepo"
	memuserrepo "github.com/tripsync/tripsync-api/internal/adapters/memory/userrepo"
	pgidempotency "github.com/tripsync/tripsync-api/internal/adapters/postgres/idempotency"
	postgres_testutil "github.com/tripsync/tripsync-api/internal/adapters/postgres/testutil"
	pgtriprepo "github.com/tripsync/tripsync-api/internal/adapters/postgres/triprepo"
	pguserrepo "github.com/tripsync/tripsync-api/internal/adapters/postgres/userrepo"
	"github.com/tripsync/tripsync-api/internal/app/trips"
	"github.com/tripsync/tripsync-api/internal/app/users"
	"github.com/tripsync/tripsync-api/internal/platform/auth/password"
	"github.com/tripsync/tripsync-api/internal/platform/auth/token"
	"github.com/tripsync/tripsync-api/internal/platform/config"
	idempotencyport "github.com/tripsync/tripsync-api/internal/ports/out/idempotency"
	triprepoport "github.com/tripsync/tripsync-api/internal/ports/out/triprepo"
	userrepoport "github.com/tripsync/tripsync-api/internal/ports/out/userrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))

	var (
		userRepo  userrepoport.Repository
		tripRepo  triprepoport.Repository
		idemStore idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		userRepo = pguserrepo.NewRepo(pool)
		tripRepo = pgtriprepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	case backendMemory:
		mu := memuserrepo.NewRepo()
		userRepo = mu
		tripRepo = memtriprepo.NewRepo(mu)
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	tokens := token.NewWithClock(config.AuthConfig{
		Secret:   "itest-secret-0123456789abcdefghij",
		Issuer:   "itest-issuer",
		TokenTTL: time.Hour,
	}, clk)
	usersSvc := users.NewService(userRepo, tripRepo, password.NewHasher(bcrypt.MinCost), tokens, clk)
	tripsSvc := trips.NewService(tripRepo, clk)
	api := httpapi.NewServer(usersSvc, tripsSvc, idemStore, clk, "test")

	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		AuthMiddleware:        httpapi.NewAuthMiddleware(usersSvc, false),
		UsersListRequiresAuth: true,
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, bearer string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return s.send(t, req)
}

type account struct {
	ID    string
	Email string
	Token string
}

// uniqueEmail keeps repeated runs against the same database from colliding.
func uniqueEmail(name string) string {
	return name + "+" + uuid.NewString()[:8] + "@example.com"
}

func (s *testServer) register(t *testing.T, name, first, last string) account {
	t.Helper()
	email := uniqueEmail(name)
	status, body, _ := s.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":     email,
		"password":  "password123",
		"firstName": first,
		"lastName":  last,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: status=%d body=%s", email, status, string(body))
	}
	got := mustUnmarshal[struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}](t, body)
	if got.Token == "" || got.User.ID == "" {
		t.Fatalf("register %s: missing token or id; body=%s", email, string(body))
	}
	return account{ID: got.User.ID, Email: email, Token: got.Token}
}

type errorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) errorResponse {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Code != wantCode {
		t.Fatalf("code=%q want=%q body=%s", got.Code, wantCode, string(body))
	}
	return got
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}

func (s *testServer) send(t *testing.T, req *http.Request) (int, []byte, http.Header) {
	t.Helper()
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}
