// Command migrate applies the embedded schema migrations to DATABASE_URL.
//
//	migrate          apply pending migrations
//	migrate -status  list applied and pending files
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/tripsync/tripsync-api/internal/adapters/postgres/migrate"
)

func main() {
	status := flag.Bool("status", false, "print migration status and exit")
	flag.Parse()

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	ctx := context.Background()
	db, err := migrate.Open(ctx, dsn)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer db.Close()

	if *status {
		printStatus(ctx, db)
		return
	}

	applied, err := migrate.Up(ctx, db)
	if err != nil {
		log.Fatalf("migrate up: %v", err)
	}
	if len(applied) == 0 {
		log.Printf("schema is up to date")
		return
	}
	for _, name := range applied {
		log.Printf("applied %s", name)
	}
}

func printStatus(ctx context.Context, db *sqlx.DB) {
	files, err := migrate.Files()
	if err != nil {
		log.Fatalf("list files: %v", err)
	}
	done, err := migrate.Applied(ctx, db)
	if err != nil {
		log.Fatalf("list applied: %v", err)
	}
	seen := make(map[string]bool, len(done))
	for _, name := range done {
		seen[name] = true
	}
	for _, name := range files {
		state := "pending"
		if seen[name] {
			state = "applied"
		}
		log.Printf("%-8s %s", state, name)
	}
}
