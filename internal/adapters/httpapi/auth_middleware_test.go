package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/tripsync/tripsync-api/internal/app/users"
	"github.com/tripsync/tripsync-api/internal/platform/auth/token"
)

func TestAuthMiddleware_MissingHeader_401(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/trips", "", nil)

	er := requireError(t, rec, http.StatusUnauthorized, codeTokenRequired)
	if er.RequestID == "" {
		t.Fatalf("expected requestId to be set")
	}
	if er.Error != "Access token required" {
		t.Fatalf("error=%q", er.Error)
	}
}

func TestAuthMiddleware_MalformedHeader_401(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/trips", "", nil, "Authorization", "Basic abc")
	requireError(t, rec, http.StatusUnauthorized, codeTokenRequired)

	rec = api.do(t, http.MethodGet, "/api/trips", "", nil, "Authorization", "Bearer    ")
	requireError(t, rec, http.StatusUnauthorized, codeTokenRequired)
}

func TestAuthMiddleware_InvalidToken_401(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/trips", "not-a-token", nil)
	requireError(t, rec, http.StatusUnauthorized, users.CodeInvalidToken)
}

func TestAuthMiddleware_ForeignSecret_401(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	api.register(t, "alice@example.com", "Alice", "Walker")

	cfg := testAuthConfig()
	cfg.Secret = "some-other-secret-entirely-0123456789"
	forged, err := token.NewWithClock(cfg, api.clock).Issue(context.Background(), "x")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rec := api.do(t, http.MethodGet, "/api/auth/verify", forged, nil)
	requireError(t, rec, http.StatusUnauthorized, users.CodeInvalidToken)
}

func TestAuthMiddleware_ExpiredToken_401(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	me := api.register(t, "alice@example.com", "Alice", "Walker")

	api.clock.Advance(2 * time.Hour)
	rec := api.do(t, http.MethodGet, "/api/auth/verify", me.Token, nil)
	requireError(t, rec, http.StatusUnauthorized, users.CodeInvalidToken)
}

func TestAuthMiddleware_DeletedUser_401(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	me := api.register(t, "alice@example.com", "Alice", "Walker")

	rec := api.do(t, http.MethodDelete, "/api/users/profile", me.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = api.do(t, http.MethodGet, "/api/auth/verify", me.Token, nil)
	requireError(t, rec, http.StatusUnauthorized, users.CodeInvalidToken)
}

func TestAuthMiddleware_ValidToken_StoresUser(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	me := api.register(t, "alice@example.com", "Alice", "Walker")

	rec := api.do(t, http.MethodGet, "/api/auth/verify", me.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	got := mustDecode[userResponse](t, rec)
	if got.Message != "Token is valid" || got.User.ID != me.ID || got.User.Email != "alice@example.com" {
		t.Fatalf("verify=%+v", got)
	}
}
