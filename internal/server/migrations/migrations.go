// Package migrations embeds the goose SQL migrations for the Postgres backing.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
