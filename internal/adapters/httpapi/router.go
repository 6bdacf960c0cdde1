package httpapi

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tripsync/tripsync-api/internal/app/apperr"
)

type RouterOptions struct {
	// AuthMiddleware guards every bearer route. Required.
	AuthMiddleware func(http.Handler) http.Handler

	// RequestLogging enables chi's request logger.
	RequestLogging bool

	// RateLimitRequests per RateLimitWindow per client IP. Zero disables the limiter.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// TrustProxy takes the client address from X-Forwarded-For, X-Real-IP or True-Client-IP.
	// Leave it off unless a proxy in front overwrites those headers; otherwise callers choose
	// their own rate limit key.
	TrustProxy bool

	// AllowedOrigins for CORS. Empty reflects any origin.
	AllowedOrigins []string

	// UsersListRequiresAuth puts GET /api/users behind AuthMiddleware.
	UsersListRequiresAuth bool
}

// NewRouter constructs the API HTTP router.
func NewRouter(api *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	if opts.RequestLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(tracingMiddleware)
	r.Use(securityHeaders()...)
	r.Use(corsHandler(opts.AllowedOrigins))
	if opts.RateLimitRequests > 0 && opts.RateLimitWindow > 0 {
		r.Use(httprate.Limit(
			opts.RateLimitRequests,
			opts.RateLimitWindow,
			httprate.WithKeyFuncs(keyByRemoteAddr),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeAppError(w, r, apperr.New(http.StatusTooManyRequests, codeRateLimited, "Too many requests",
					"Too many requests from this IP, please try again later."))
			}),
		))
	}

	r.NotFound(api.NotFound)
	r.MethodNotAllowed(api.NotFound)

	// Health endpoint is unauthenticated (used for infra checks).
	r.Get("/health", api.Health)

	requireAuth := opts.AuthMiddleware

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", api.Register)
		r.Post("/login", api.Login)
		r.With(requireAuth).Get("/verify", api.Verify)
	})

	r.Route("/api/users", func(r chi.Router) {
		if opts.UsersListRequiresAuth {
			r.With(requireAuth).Get("/", api.ListUsers)
		} else {
			r.Get("/", api.ListUsers)
		}
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/profile", api.GetProfile)
			r.Put("/profile", api.UpdateProfile)
			r.Delete("/profile", api.DeleteAccount)
			r.Get("/search", api.SearchUsers)
		})
	})

	r.Route("/api/trips", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", api.ListTrips)
		r.Post("/", api.CreateTrip)
		r.Get("/{id}", api.GetTrip)
		r.Put("/{id}", api.UpdateTrip)
		r.Delete("/{id}", api.DeleteTrip)
		r.Post("/{id}/participants", api.AddParticipant)
		r.Delete("/{id}/participants/{userId}", api.RemoveParticipant)
	})

	return r
}

// keyByRemoteAddr keys the limiter on r.RemoteAddr, which is the socket peer unless RealIP
// rewrote it. RealIP leaves no port.
func keyByRemoteAddr(r *http.Request) (string, error) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr, nil
	}
	return host, nil
}

// securityHeaders sets the baseline response headers a browser-facing API should carry.
func securityHeaders() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.SetHeader("X-Content-Type-Options", "nosniff"),
		middleware.SetHeader("X-Frame-Options", "SAMEORIGIN"),
		middleware.SetHeader("Referrer-Policy", "no-referrer"),
		middleware.SetHeader("X-DNS-Prefetch-Control", "off"),
		middleware.SetHeader("Strict-Transport-Security", "max-age=15552000; includeSubDomains"),
		middleware.SetHeader("Cross-Origin-Resource-Policy", "same-origin"),
	}
}

func corsHandler(allowed []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", headerIdempotencyKey, "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(allowed) == 0 {
		opts.AllowOriginFunc = func(_ *http.Request, _ string) bool { return true }
	} else {
		opts.AllowedOrigins = allowed
	}
	return cors.Handler(opts)
}
