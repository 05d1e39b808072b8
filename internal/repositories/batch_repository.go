package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pharmapos_backend/internal/models"
)

// BatchRepository defines database operations on product batches. Methods
// taking an SQLExecutor participate in the caller's transaction; FOR UPDATE
// variants lock the selected rows so a planning read and the subsequent
// mutation cannot race with a concurrent writer.
type BatchRepository interface {
	CreateBatch(executor SQLExecutor, batch *models.Batch) (int64, error)
	GetBatchByID(batchID int64) (*models.Batch, error)
	GetBatchForUpdate(executor SQLExecutor, batchID int64) (*models.Batch, error)
	FindByBatchNumberForUpdate(executor SQLExecutor, productID, storeID int64, batchNumber string) (*models.Batch, error)
	UpdateQuantity(executor SQLExecutor, batchID int64, newQuantity int, updatedAt time.Time) error

	AvailableBatches(productID, storeID int64) ([]models.Batch, error)
	AvailableBatchesForUpdate(executor SQLExecutor, productID, storeID int64) ([]models.Batch, error)
	ExpiringBatchesForUpdate(executor SQLExecutor, storeID int64, cutoff time.Time) ([]models.Batch, error)

	StoreInventory(storeID int64) ([]models.Batch, error)
	ExpiringBatches(storeID int64, cutoff time.Time) ([]models.Batch, error)
	LowStockBatches(storeID int64, threshold int) ([]models.Batch, error)
	ProductStock(productID, storeID int64) (int, error)
}

type batchRepository struct {
	db *sql.DB
}

// NewBatchRepository creates a new instance of BatchRepository.
func NewBatchRepository(db *sql.DB) BatchRepository {
	return &batchRepository{db: db}
}

const batchColumns = `id, product_id, store_id, batch_number, quantity, expiry_date,
	       cost_price, selling_price_override, received_at, created_at, updated_at`

func scanBatch(s scanner) (*models.Batch, error) {
	batch := &models.Batch{}
	err := s.Scan(
		&batch.ID, &batch.ProductID, &batch.StoreID, &batch.BatchNumber, &batch.Quantity,
		&batch.ExpiryDate, &batch.CostPrice, &batch.SellingPriceOverride,
		&batch.ReceivedAt, &batch.CreatedAt, &batch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *batchRepository) CreateBatch(executor SQLExecutor, batch *models.Batch) (int64, error) {
	query := `INSERT INTO product_batches
	            (product_id, store_id, batch_number, quantity, expiry_date, cost_price,
	             selling_price_override, received_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	now := time.Now()
	if batch.ReceivedAt.IsZero() {
		batch.ReceivedAt = now
	}
	batch.CreatedAt = now
	batch.UpdatedAt = now

	err := executor.QueryRow(query,
		batch.ProductID, batch.StoreID, batch.BatchNumber, batch.Quantity, batch.ExpiryDate,
		batch.CostPrice, batch.SellingPriceOverride, batch.ReceivedAt, batch.CreatedAt, batch.UpdatedAt,
	).Scan(&batch.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating batch: %v", ErrDatabaseError, err)
	}
	return batch.ID, nil
}

func (r *batchRepository) GetBatchByID(batchID int64) (*models.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM product_batches WHERE id = $1`
	batch, err := scanBatch(r.db.QueryRow(query, batchID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting batch by ID %d: %v", ErrDatabaseError, batchID, err)
	}
	return batch, nil
}

func (r *batchRepository) GetBatchForUpdate(executor SQLExecutor, batchID int64) (*models.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM product_batches WHERE id = $1 FOR UPDATE`
	batch, err := scanBatch(executor.QueryRow(query, batchID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking batch ID %d: %v", ErrDatabaseError, batchID, err)
	}
	return batch, nil
}

func (r *batchRepository) FindByBatchNumberForUpdate(executor SQLExecutor, productID, storeID int64, batchNumber string) (*models.Batch, error) {
	query := `SELECT ` + batchColumns + `
	          FROM product_batches
	          WHERE product_id = $1 AND store_id = $2 AND batch_number = $3
	          ORDER BY id
	          LIMIT 1
	          FOR UPDATE`
	batch, err := scanBatch(executor.QueryRow(query, productID, storeID, batchNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding batch %q for product %d in store %d: %v",
			ErrDatabaseError, batchNumber, productID, storeID, err)
	}
	return batch, nil
}

func (r *batchRepository) UpdateQuantity(executor SQLExecutor, batchID int64, newQuantity int, updatedAt time.Time) error {
	query := `UPDATE product_batches SET quantity = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, newQuantity, updatedAt, batchID)
	if err != nil {
		return fmt.Errorf("%w: updating quantity for batch ID %d: %v", ErrDatabaseError, batchID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for batch quantity update ID %d: %v", ErrDatabaseError, batchID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AvailableBatches returns in-stock batches sorted by soonest expiry first,
// ties broken by id. This ordering is the FEFO contract the allocation
// engine relies on.
func (r *batchRepository) AvailableBatches(productID, storeID int64) ([]models.Batch, error) {
	query := `SELECT ` + batchColumns + `
	          FROM product_batches
	          WHERE product_id = $1 AND store_id = $2 AND quantity > 0
	          ORDER BY expiry_date ASC, id ASC`
	return r.queryBatches(r.db, query, productID, storeID)
}

func (r *batchRepository) AvailableBatchesForUpdate(executor SQLExecutor, productID, storeID int64) ([]models.Batch, error) {
	query := `SELECT ` + batchColumns + `
	          FROM product_batches
	          WHERE product_id = $1 AND store_id = $2 AND quantity > 0
	          ORDER BY expiry_date ASC, id ASC
	          FOR UPDATE`
	return r.queryBatches(executor, query, productID, storeID)
}

func (r *batchRepository) ExpiringBatchesForUpdate(executor SQLExecutor, storeID int64, cutoff time.Time) ([]models.Batch, error) {
	query := `SELECT ` + batchColumns + `
	          FROM product_batches
	          WHERE store_id = $1 AND quantity > 0 AND expiry_date <= $2
	          ORDER BY expiry_date ASC, id ASC
	          FOR UPDATE`
	return r.queryBatches(executor, query, storeID, cutoff)
}

func (r *batchRepository) StoreInventory(storeID int64) ([]models.Batch, error) {
	query := `SELECT ` + batchColumns + `
	          FROM product_batches
	          WHERE store_id = $1 AND quantity > 0
	          ORDER BY expiry_date ASC, id ASC`
	return r.queryBatches(r.db, query, storeID)
}

func (r *batchRepository) ExpiringBatches(storeID int64, cutoff time.Time) ([]models.Batch, error) {
	query := `SELECT ` + batchColumns + `
	          FROM product_batches
	          WHERE store_id = $1 AND quantity > 0 AND expiry_date <= $2
	          ORDER BY expiry_date ASC, id ASC`
	return r.queryBatches(r.db, query, storeID, cutoff)
}

func (r *batchRepository) LowStockBatches(storeID int64, threshold int) ([]models.Batch, error) {
	query := `SELECT ` + batchColumns + `
	          FROM product_batches
	          WHERE store_id = $1 AND quantity > 0 AND quantity < $2
	          ORDER BY quantity ASC, id ASC`
	return r.queryBatches(r.db, query, storeID, threshold)
}

func (r *batchRepository) ProductStock(productID, storeID int64) (int, error) {
	query := `SELECT COALESCE(SUM(quantity), 0)
	          FROM product_batches
	          WHERE product_id = $1 AND store_id = $2 AND quantity > 0`
	var total int
	if err := r.db.QueryRow(query, productID, storeID).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: summing stock for product %d in store %d: %v", ErrDatabaseError, productID, storeID, err)
	}
	return total, nil
}

func (r *batchRepository) queryBatches(executor SQLExecutor, query string, args ...interface{}) ([]models.Batch, error) {
	rows, err := executor.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying batches: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	batches := []models.Batch{}
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning batch: %v", ErrDatabaseError, err)
		}
		batches = append(batches, *batch)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating batch rows: %v", ErrDatabaseError, err)
	}
	return batches, nil
}
