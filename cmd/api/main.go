package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tripsync/tripsync-api/internal/adapters/httpapi"
	memidempotency "github.com/tripsync/tripsync-api/internal/adapters/memory/idempotency"
	memtriprepo "github.com/tripsync/tripsync-api/internal/adapters/memory/triprepo"
	memuserrepo "github.com/tripsync/tripsync-api/internal/adapters/memory/userrepo"
	postgres "github.com/tripsync/tripsync-api/internal/adapters/postgres"
	pgidempotency "github.com/tripsync/tripsync-api/internal/adapters/postgres/idempotency"
	"github.com/tripsync/tripsync-api/internal/adapters/postgres/migrate"
	pgtriprepo "github.com/tripsync/tripsync-api/internal/adapters/postgres/triprepo"
	pguserrepo "github.com/tripsync/tripsync-api/internal/adapters/postgres/userrepo"
	"github.com/tripsync/tripsync-api/internal/app/seed"
	"github.com/tripsync/tripsync-api/internal/app/trips"
	"github.com/tripsync/tripsync-api/internal/app/users"
	"github.com/tripsync/tripsync-api/internal/platform/auth/password"
	"github.com/tripsync/tripsync-api/internal/platform/auth/token"
	platformclock "github.com/tripsync/tripsync-api/internal/platform/clock"
	"github.com/tripsync/tripsync-api/internal/platform/config"
	"github.com/tripsync/tripsync-api/internal/platform/otel"
	idempotencyport "github.com/tripsync/tripsync-api/internal/ports/out/idempotency"
	triprepoport "github.com/tripsync/tripsync-api/internal/ports/out/triprepo"
	userrepoport "github.com/tripsync/tripsync-api/internal/ports/out/userrepo"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}

	clk := platformclock.NewSystemClock()

	var (
		userRepo  userrepoport.Repository
		tripRepo  triprepoport.Repository
		idemStore idempotencyport.Store
		cleanup   func()
	)

	switch cfg.StorageBackend {
	case config.BackendPostgres:
		if cfg.MigrateOnStart {
			runMigrations(ctx, cfg.Database.URL)
		}
		pool, err := postgres.NewPool(ctx, cfg.Database.URL, postgres.PoolOptions{
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
		})
		if err != nil {
			log.Fatalf("invalid postgres config: %v", err)
		}
		cleanup = pool.Close

		userRepo = pguserrepo.NewRepo(pool)
		tripRepo = pgtriprepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	default:
		mu := memuserrepo.NewRepo()
		userRepo = mu
		tripRepo = memtriprepo.NewRepo(mu)
		idemStore = memidempotency.NewStore()
	}

	if cleanup != nil {
		defer cleanup()
	}

	hasher := password.NewHasher(cfg.Auth.BcryptCost)
	if cfg.SeedOnStart {
		res, err := seed.New(userRepo, tripRepo, hasher, clk, log.Default()).Run(ctx)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		if !res.Skipped {
			log.Printf("seeded %d users and %d trips", len(res.Users), len(res.Trips))
		}
	}

	usersSvc := users.NewService(userRepo, tripRepo, hasher, token.New(cfg.Auth), clk)
	tripsSvc := trips.NewService(tripRepo, clk)
	api := httpapi.NewServer(usersSvc, tripsSvc, idemStore, clk, cfg.Environment)

	if !cfg.HTTP.UsersListRequiresAuth {
		log.Printf("WARNING: GET /api/users is public and lists every account; set USERS_LIST_REQUIRE_AUTH=true to guard it")
	}

	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		AuthMiddleware:        httpapi.NewAuthMiddleware(usersSvc, cfg.IsProduction()),
		RequestLogging:        cfg.Environment != config.EnvTest,
		RateLimitRequests:     cfg.HTTP.RateLimitRequests,
		RateLimitWindow:       cfg.HTTP.RateLimitWindow,
		TrustProxy:            cfg.HTTP.TrustProxy,
		AllowedOrigins:        cfg.HTTP.CORSAllowedOrigins,
		UsersListRequiresAuth: cfg.HTTP.UsersListRequiresAuth,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	go func() {
		log.Printf("api listening on :%s (env=%s storage=%s)", cfg.Port, cfg.Environment, cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
}

func runMigrations(ctx context.Context, dsn string) {
	db, err := migrate.Open(ctx, dsn)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	defer db.Close()
	applied, err := migrate.Up(ctx, db)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	for _, name := range applied {
		log.Printf("applied migration %s", name)
	}
}
