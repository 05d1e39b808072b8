package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"pharmapos_backend/internal/models"
)

// TransferRepository persists inter-store transfer records. One row is
// written per consumed source batch; rows of the same request share a
// reference code.
type TransferRepository interface {
	CreateTransfer(executor SQLExecutor, transfer *models.Transfer) (int64, error)
	GetTransfersByReference(reference string) ([]models.Transfer, error)
	GetTransfersByStore(storeID int64, limit int) ([]models.Transfer, error)
}

type transferRepository struct {
	db *sql.DB
}

// NewTransferRepository creates a new instance of TransferRepository.
func NewTransferRepository(db *sql.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) CreateTransfer(executor SQLExecutor, transfer *models.Transfer) (int64, error) {
	query := `INSERT INTO stock_transfers
	            (reference, product_id, batch_number, quantity, from_store_id, to_store_id, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		transfer.Reference, transfer.ProductID, transfer.BatchNumber, transfer.Quantity,
		transfer.FromStoreID, transfer.ToStoreID, transfer.Status, transfer.CreatedAt,
	).Scan(&transfer.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating transfer: %v", ErrDatabaseError, err)
	}
	return transfer.ID, nil
}

func (r *transferRepository) GetTransfersByReference(reference string) ([]models.Transfer, error) {
	query := `SELECT id, reference, product_id, batch_number, quantity,
	                 from_store_id, to_store_id, status, created_at
	          FROM stock_transfers
	          WHERE reference = $1
	          ORDER BY id ASC`
	transfers, err := r.queryTransfers(query, reference)
	if err != nil {
		return nil, err
	}
	if len(transfers) == 0 {
		return nil, ErrNotFound
	}
	return transfers, nil
}

// GetTransfersByStore lists recent transfers touching a store in either
// direction, newest first.
func (r *transferRepository) GetTransfersByStore(storeID int64, limit int) ([]models.Transfer, error) {
	if limit < 1 {
		limit = 50
	}
	query := `SELECT id, reference, product_id, batch_number, quantity,
	                 from_store_id, to_store_id, status, created_at
	          FROM stock_transfers
	          WHERE from_store_id = $1 OR to_store_id = $1
	          ORDER BY created_at DESC, id DESC
	          LIMIT $2`
	return r.queryTransfers(query, storeID, limit)
}

func (r *transferRepository) queryTransfers(query string, args ...interface{}) ([]models.Transfer, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying transfers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	transfers := []models.Transfer{}
	for rows.Next() {
		var transfer models.Transfer
		err := rows.Scan(
			&transfer.ID, &transfer.Reference, &transfer.ProductID, &transfer.BatchNumber,
			&transfer.Quantity, &transfer.FromStoreID, &transfer.ToStoreID, &transfer.Status, &transfer.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning transfer: %v", ErrDatabaseError, err)
		}
		transfers = append(transfers, transfer)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating transfer rows: %v", ErrDatabaseError, err)
	}
	return transfers, nil
}
