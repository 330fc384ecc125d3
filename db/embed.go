// Package db embeds the SQL schema applied on startup.
package db

import _ "embed"

// Schema holds the DDL for every storefront table. It is applied with
// IF NOT EXISTS guards, so running it on an existing database is a no-op.
//
//go:embed migrations/001_schema.sql
var Schema string
