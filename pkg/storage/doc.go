// Package storage defines the persistence contract for accounts and notes
// and the helpers shared by its adapters.
//
// Adapters live in subpackages: memory (tests and single-process use),
// postgres (pgx), sqlite (go-sqlite3 with golang-migrate) and mongo
// (mongo-driver). Each one implements Store and reports missing records
// with ErrNotFound and duplicate emails with ErrConflict.
//
// Every note operation takes the owning account id alongside the note id
// and filters on both. A note owned by another account is reported exactly
// like a missing one.
package storage
