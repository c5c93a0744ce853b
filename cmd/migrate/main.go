package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/env"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/storage/postgres"

	"github.com/golang-migrate/migrate/v4"
)

func main() {
	up := flag.Bool("up", false, "Run migrations up")
	down := flag.Bool("down", false, "Run migrations down")
	version := flag.Int("version", -1, "Migrate to a specific version")
	flag.Parse()

	databaseURL := env.NewEnvService().MustGet("DATABASE_URL")

	m, err := postgres.NewMigrator(databaseURL)
	if err != nil {
		log.Fatal("Error creating migrator: ", err)
	}
	defer m.Close()

	switch {
	case *up:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal("Error running migrations up: ", err)
		}
		fmt.Println("Migrations up completed successfully")
	case *down:
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal("Error running migrations down: ", err)
		}
		fmt.Println("Migrations down completed successfully")
	case *version >= 0:
		if err := m.Migrate(uint(*version)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal("Error migrating to specific version: ", err)
		}
		fmt.Printf("Migration to version %d completed successfully\n", *version)
	default:
		fmt.Println("Please specify either -up, -down, or -version")
		os.Exit(1)
	}
}
