package migrations

import "embed"

// FS contains embedded SQLite migrations for the search index.
//
//go:embed *.sql
var FS embed.FS
