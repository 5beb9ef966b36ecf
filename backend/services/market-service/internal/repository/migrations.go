package repository

import (
	"database/sql"
	"embed"

	libdb "arbigrid/backend/libs/db"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies the market schema.
func Migrate(db *sql.DB) (int, error) {
	return libdb.Migrate(db, migrationFS, "migrations")
}
