// Package migrations embeds the SQL migration files so the server binary can
// apply them with goose without needing the source tree on disk.
package migrations

import "embed"

// FS holds the embedded migration files.
//
//go:embed *.sql
var FS embed.FS
