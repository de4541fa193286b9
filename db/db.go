package db

import "embed"

// Schema holds the CREATE TABLE statements applied by the schema guard.
//
//go:embed schema/*.sql
var Schema embed.FS
