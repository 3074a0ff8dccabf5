// Package db provides the embedded database schema and the bundled demo
// catalog used when no database is configured.
package db

import _ "embed"

// Schema contains the DDL statements for the catalog table.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedCatalog is the demo product catalog in JSON form. The in-memory
// catalog repository decodes it at startup; cmd/seed-catalog can load the
// same data into Postgres.
//
//go:embed seed/catalog.json
var SeedCatalog []byte
