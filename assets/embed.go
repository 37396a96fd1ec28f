// Package assets embeds the SQL migrations shipped with the server.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed sql/*.sql
var sqlFS embed.FS

// Migrations returns the migration scripts rooted at their directory,
// so names look like "001_init.sql".
func Migrations() fs.FS {
	sub, err := fs.Sub(sqlFS, "sql")
	if err != nil {
		// sql/ is embedded at build time; a miss here is a build bug.
		panic(err)
	}
	return sub
}
