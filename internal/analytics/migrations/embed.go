package migrations

import "embed"

// FS contains the analytics schema.
//
//go:embed *.sql
var FS embed.FS
