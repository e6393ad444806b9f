// Package db embeds the purchase store schema.
package db

import _ "embed"

// Schema holds the idempotent DDL for the purchases table and its indexes.
//
//go:embed migrations/001_schema.sql
var Schema string
