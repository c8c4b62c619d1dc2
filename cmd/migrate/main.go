package main

// Run database migrations:
//   go run ./cmd/migrate
//
// With ADMIN_EMAIL and ADMIN_PASSWORD set, also seeds the first admin
// account after migrating.

import (
	"context"
	"log"
	"os"
	"strings"

	"docclassifier-backend/internal/admin"
	"docclassifier-backend/internal/shared/config"
	"docclassifier-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}

	email := strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}

	svc := admin.NewService(admin.NewPGRepo(sqlDB))
	if _, err := svc.Provision(ctx, email, password, "admin"); err != nil {
		log.Printf("failed to seed admin account: %v", err)
		os.Exit(1)
	}
	log.Printf("seeded admin account %s", email)
}
