// Package migrations embeds the goose migration scripts for the local
// tracking database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
