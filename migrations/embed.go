// Package migrations embeds the Tasklane schema into the binary.
//
// Importing it for side effects registers the files with the database
// package so Migrate works without SQL files on disk.
package migrations

import (
	"embed"

	"github.com/tasklane/tasklane-core/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.Migrations = database.MigrationSource{FS: files, Dir: "."}
}
