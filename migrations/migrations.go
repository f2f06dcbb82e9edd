// Package migrations embeds the schema files applied by internal/core/db.
package migrations

import "embed"

// One directory per dialect; files are applied in filename order.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
