// Package db provides the embedded schema for the postgres storage backend.
package db

import _ "embed"

// Schema contains the DDL statements for the kv and products tables.
//
//go:embed migrations/001_schema.sql
var Schema string
