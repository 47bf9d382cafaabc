package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is registered by the timestamped files in this package;
// bun derives each migration name from the registering file's name.
var Migrations = migrate.NewMigrations()
