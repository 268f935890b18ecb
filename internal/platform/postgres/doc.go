// Package postgres provides the PostgreSQL implementation of the store
// interfaces, the embedded schema migrations, and the mapping from
// PostgreSQL error codes to store errors. Connections go through the pgx
// database/sql driver.
package postgres
