package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation (SQLite, Postgres, etc.) owns its own migration
// files and strategy, so the storage backend is swappable as a unit.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}
