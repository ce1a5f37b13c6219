// Package migrations contains the embedded goose migrations for Postgres.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
