// AngelaMos | 2026
// migrations.go

// Package migrations embeds the schema so both the API and storectl can
// apply it without shipping SQL files alongside the binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
