package database

import (
	"log"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	// CGO-free sqlite driver registered under "sqlite"
	_ "modernc.org/sqlite"
)

// Connect opens the database behind the DSN. Postgres URLs get the pgx-backed
// driver used in production; anything else is treated as a sqlite path, which
// covers local development and the in-memory test databases.
func Connect(dsn string) (*gorm.DB, error) {
	if isPostgresDSN(dsn) {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	log.Println("Using SQLite:", dsn)
	cfg := gormsqlite.Config{
		DriverName: "sqlite",
		DSN:        dsn,
	}
	return gorm.Open(gormsqlite.New(cfg), &gorm.Config{})
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
