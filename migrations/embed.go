// Package migrations embeds the SQL schema migrations for every supported driver.
package migrations

import "embed"

// FS holds one directory of golang-migrate files per driver: sqlite/ and postgres/.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
