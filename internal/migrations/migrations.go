// Package migrations embeds the SQL migrations applied by goose when a
// device opens its local database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
