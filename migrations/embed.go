// Package migrations embeds the device store schema into the binary.
package migrations

import "embed"

// FS holds the schema files applied by database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
