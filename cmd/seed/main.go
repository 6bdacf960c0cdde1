// Command seed loads the demo accounts and trips into an empty database.
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	postgres "github.com/tripsync/tripsync-api/internal/adapters/postgres"
	pgtriprepo "github.com/tripsync/tripsync-api/internal/adapters/postgres/triprepo"
	pguserrepo "github.com/tripsync/tripsync-api/internal/adapters/postgres/userrepo"
	"github.com/tripsync/tripsync-api/internal/app/seed"
	"github.com/tripsync/tripsync-api/internal/platform/auth/password"
	platformclock "github.com/tripsync/tripsync-api/internal/platform/clock"
	"github.com/tripsync/tripsync-api/internal/platform/config"
)

type seedConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	BcryptCost  int    `env:"BCRYPT_COST" envDefault:"12"`
}

func main() {
	_ = godotenv.Load()

	var cfg seedConfig
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: 2})
	if err != nil {
		log.Fatalf("open pool: %v", err)
	}
	defer pool.Close()

	seeder := seed.New(
		pguserrepo.NewRepo(pool),
		pgtriprepo.NewRepo(pool),
		password.NewHasher(cfg.BcryptCost),
		platformclock.NewSystemClock(),
		log.Default(),
	)
	res, err := seeder.Run(ctx)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if res.Skipped {
		log.Printf("database already has users; nothing seeded")
		return
	}
	log.Printf("seeded %d users and %d trips (password %q)", len(res.Users), len(res.Trips), seed.DemoPassword)
}
