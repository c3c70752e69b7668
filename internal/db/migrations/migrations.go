package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registry consumed by the db subcommands.
var Migrations = migrate.NewMigrations()
