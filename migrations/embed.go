// Package migrations embeds the SQL schema migrations into the binary.
//
// Files follow the golang-migrate naming scheme {version}_{title}.up.sql
// and {version}_{title}.down.sql. Importing this package registers them
// with the database package.
package migrations

import (
	"embed"

	"github.com/nerrad567/kanban-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
