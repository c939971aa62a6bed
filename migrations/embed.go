// Package migrations holds the goose SQL migrations compiled into cmd/migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
