// Package migrations applies the embedded schema on startup when Postgres
// storage is configured.
package migrations

import "embed"

// FS embeds all SQL migration files.
//
//go:embed sql/*.sql
var FS embed.FS
