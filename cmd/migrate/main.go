// Command migrate applies or rolls back the procmon schema migrations.
//
//	migrate up
//	migrate -path ./migrations -db sqlite3://./data/procmon.db down
package main

import (
	"flag"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	migrationsPath := flag.String("path", "./migrations", "directory holding the procmon migration files")
	databaseURL := flag.String("db", "sqlite3://./data/procmon.db", "database URL the migrations run against")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		log.Fatal("Usage: migrate [-path <migrations-dir>] [-db <database-url>] up|down")
	}

	m, err := migrate.New("file://"+*migrationsPath, *databaseURL)
	if err != nil {
		log.Fatalf("Failed to create migrate instance: %v", err)
	}

	switch command {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("An error occurred while migrating up: %v", err)
		}
		log.Println("Migrations applied successfully.")
	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("An error occurred while migrating down: %v", err)
		}
		log.Println("Migrations rolled back successfully.")
	default:
		log.Fatalf("Unknown command: %s. Use `up` or `down`.", command)
	}
}
