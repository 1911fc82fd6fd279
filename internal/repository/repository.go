// Package repository contains the SQLite persistence layer. Write methods
// accept an optional *sql.Tx so the engine can compose a whole decision
// (status write, stage rows, audit event) into one transaction.
package repository

import "database/sql"

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func conn(db *sql.DB, tx *sql.Tx) dbtx {
	if tx != nil {
		return tx
	}
	return db
}
