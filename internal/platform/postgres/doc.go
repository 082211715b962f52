// Package postgres provides PostgreSQL implementations of the store
// interfaces along with embedded schema migrations and error mapping
// from driver errors to store sentinels.
package postgres
