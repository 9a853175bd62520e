// Package migrations embeds the SQL schema for the Postgres listing store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
