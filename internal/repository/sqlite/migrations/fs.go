// Package migrations embeds the SQLite schema migration files and applies
// them in lexical order, tracking progress in a schema_migrations table.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
