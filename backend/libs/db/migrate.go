package db

import (
	"database/sql"
	"embed"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
)

// Migrate applies every pending up migration found under root in fsys and
// returns how many were applied.
func Migrate(db *sql.DB, fsys embed.FS, root string) (int, error) {
	source := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: fsys,
		Root:       root,
	}
	n, err := migrate.Exec(db, "postgres", source, migrate.Up)
	if err != nil {
		return 0, fmt.Errorf("db: apply migrations: %w", err)
	}
	return n, nil
}
