package store

import "embed"

//go:embed migrations/*.sql
var migrationsFS embed.FS

func hasEmbeddedMigrations() (bool, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}
