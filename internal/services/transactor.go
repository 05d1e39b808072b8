package services

import (
	"database/sql"
	"fmt"

	"pharmapos_backend/internal/repositories"
)

// Transactor runs a function inside a database transaction. The function
// receives an executor bound to the transaction; returning an error rolls
// everything back, returning nil commits.
type Transactor interface {
	WithinTx(fn func(executor repositories.SQLExecutor) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

// NewTransactor creates a Transactor backed by the given database handle.
func NewTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

func (t *sqlTransactor) WithinTx(fn func(executor repositories.SQLExecutor) error) error {
	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
