package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pharmapos_backend/internal/models"
)

// ReconciliationRepository persists physical-count sessions and their items.
type ReconciliationRepository interface {
	CreateReconciliation(executor SQLExecutor, rec *models.Reconciliation) (int64, error)
	GetReconciliationByID(reconciliationID int64) (*models.Reconciliation, error)
	GetReconciliationForUpdate(executor SQLExecutor, reconciliationID int64) (*models.Reconciliation, error)
	CompleteReconciliation(executor SQLExecutor, reconciliationID int64, completedAt time.Time) error
	CreateItem(executor SQLExecutor, item *models.ReconciliationItem) (int64, error)
	GetItemsByReconciliationID(reconciliationID int64) ([]models.ReconciliationItem, error)
}

type reconciliationRepository struct {
	db *sql.DB
}

// NewReconciliationRepository creates a new instance of ReconciliationRepository.
func NewReconciliationRepository(db *sql.DB) ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

func scanReconciliation(s scanner) (*models.Reconciliation, error) {
	rec := &models.Reconciliation{}
	err := s.Scan(&rec.ID, &rec.StoreID, &rec.UserID, &rec.Notes, &rec.StartedAt, &rec.CompletedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *reconciliationRepository) CreateReconciliation(executor SQLExecutor, rec *models.Reconciliation) (int64, error) {
	query := `INSERT INTO reconciliations (store_id, user_id, notes, started_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`

	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}

	err := executor.QueryRow(query, rec.StoreID, rec.UserID, rec.Notes, rec.StartedAt).Scan(&rec.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating reconciliation: %v", ErrDatabaseError, err)
	}
	return rec.ID, nil
}

func (r *reconciliationRepository) GetReconciliationByID(reconciliationID int64) (*models.Reconciliation, error) {
	query := `SELECT id, store_id, user_id, notes, started_at, completed_at
	          FROM reconciliations WHERE id = $1`
	rec, err := scanReconciliation(r.db.QueryRow(query, reconciliationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting reconciliation by ID %d: %v", ErrDatabaseError, reconciliationID, err)
	}
	return rec, nil
}

func (r *reconciliationRepository) GetReconciliationForUpdate(executor SQLExecutor, reconciliationID int64) (*models.Reconciliation, error) {
	query := `SELECT id, store_id, user_id, notes, started_at, completed_at
	          FROM reconciliations WHERE id = $1 FOR UPDATE`
	rec, err := scanReconciliation(executor.QueryRow(query, reconciliationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking reconciliation ID %d: %v", ErrDatabaseError, reconciliationID, err)
	}
	return rec, nil
}

func (r *reconciliationRepository) CompleteReconciliation(executor SQLExecutor, reconciliationID int64, completedAt time.Time) error {
	query := `UPDATE reconciliations SET completed_at = $1 WHERE id = $2`
	result, err := executor.Exec(query, completedAt, reconciliationID)
	if err != nil {
		return fmt.Errorf("%w: completing reconciliation ID %d: %v", ErrDatabaseError, reconciliationID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for reconciliation ID %d: %v", ErrDatabaseError, reconciliationID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reconciliationRepository) CreateItem(executor SQLExecutor, item *models.ReconciliationItem) (int64, error) {
	query := `INSERT INTO reconciliation_items
	            (reconciliation_id, batch_id, system_quantity, counted_quantity, variance)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	err := executor.QueryRow(query,
		item.ReconciliationID, item.BatchID, item.SystemQuantity, item.CountedQuantity, item.Variance,
	).Scan(&item.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating reconciliation item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *reconciliationRepository) GetItemsByReconciliationID(reconciliationID int64) ([]models.ReconciliationItem, error) {
	query := `SELECT id, reconciliation_id, batch_id, system_quantity, counted_quantity, variance
	          FROM reconciliation_items
	          WHERE reconciliation_id = $1
	          ORDER BY id ASC`

	rows, err := r.db.Query(query, reconciliationID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying reconciliation items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.ReconciliationItem{}
	for rows.Next() {
		var item models.ReconciliationItem
		err := rows.Scan(&item.ID, &item.ReconciliationID, &item.BatchID,
			&item.SystemQuantity, &item.CountedQuantity, &item.Variance)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning reconciliation item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating reconciliation item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}
