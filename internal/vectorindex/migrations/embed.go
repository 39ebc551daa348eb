package migrations

import "embed"

// FS contains the vector index schema.
//
//go:embed *.sql
var FS embed.FS
