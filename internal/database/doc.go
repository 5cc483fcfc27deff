// Package database opens the configured store and manages the Postgres
// schema.
//
// Postgres is reached through a pgx connection pool. The schema lives in
// embedded goose migrations under migrations/ and is applied by cmd/migrate
// or by Migrate at startup. SQLite stores create their own schema on open.
package database
