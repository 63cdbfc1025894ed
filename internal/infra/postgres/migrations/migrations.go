package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema steps applied by the migrate and start commands.
var Migrations = migrate.NewMigrations()
