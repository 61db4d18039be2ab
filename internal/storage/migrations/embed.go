// Package migrations contains the embedded SQL migrations, one directory per
// dialect.
package migrations

import "embed"

//go:embed sqlite/*.sql mysql/*.sql postgres/*.sql
var FS embed.FS
