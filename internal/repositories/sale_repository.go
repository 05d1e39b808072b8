package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"pharmapos_backend/internal/models"
)

// SaleRepository persists completed sales and their line items.
type SaleRepository interface {
	CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error)
	CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error)
	GetSaleByID(saleID int64) (*models.Sale, error)
	GetSaleByIdempotencyKey(key string) (*models.Sale, error)
	GetSalesByDate(storeID int64, date time.Time) ([]models.Sale, error)
	CountSalesByStore(executor SQLExecutor, storeID int64) (int, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error) {
	query := `INSERT INTO sales
	            (receipt_number, idempotency_key, total_amount, amount_paid, change_amount,
	             payment_method, payment_reference, store_id, user_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		sale.ReceiptNumber, sale.IdempotencyKey, sale.TotalAmount, sale.AmountPaid, sale.ChangeAmount,
		sale.PaymentMethod, sale.PaymentReference, sale.StoreID, sale.UserID, sale.CreatedAt,
	).Scan(&sale.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, ErrDuplicateKey
		}
		return 0, fmt.Errorf("%w: creating sale: %v", ErrDatabaseError, err)
	}
	return sale.ID, nil
}

func (r *saleRepository) CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error) {
	query := `INSERT INTO sale_items (sale_id, batch_id, quantity, unit_price, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		item.SaleID, item.BatchID, item.Quantity, item.UnitPrice, item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating sale item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

const saleColumns = `id, receipt_number, idempotency_key, total_amount, amount_paid, change_amount,
	       payment_method, payment_reference, store_id, user_id, created_at`

func scanSale(s scanner) (*models.Sale, error) {
	sale := &models.Sale{}
	err := s.Scan(
		&sale.ID, &sale.ReceiptNumber, &sale.IdempotencyKey, &sale.TotalAmount, &sale.AmountPaid,
		&sale.ChangeAmount, &sale.PaymentMethod, &sale.PaymentReference, &sale.StoreID,
		&sale.UserID, &sale.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (r *saleRepository) GetSaleByID(saleID int64) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`

	sale, err := scanSale(r.db.QueryRow(query, saleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale by ID %d: %v", ErrDatabaseError, saleID, err)
	}

	items, err := r.getItemsBySaleID(saleID)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return sale, nil
}

// GetSaleByIdempotencyKey resolves a retried sale request to the sale its
// first attempt created.
func (r *saleRepository) GetSaleByIdempotencyKey(key string) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE idempotency_key = $1`

	sale, err := scanSale(r.db.QueryRow(query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale by idempotency key: %v", ErrDatabaseError, err)
	}

	items, err := r.getItemsBySaleID(sale.ID)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return sale, nil
}

func (r *saleRepository) GetSalesByDate(storeID int64, date time.Time) ([]models.Sale, error) {
	query := `SELECT ` + saleColumns + `
	          FROM sales
	          WHERE store_id = $1 AND created_at >= $2 AND created_at < $3
	          ORDER BY created_at DESC`

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := r.db.Query(query, storeID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sales by date: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
		}
		sales = append(sales, *sale)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale rows: %v", ErrDatabaseError, err)
	}
	return sales, nil
}

// CountSalesByStore runs inside the sale transaction so the receipt sequence
// it feeds cannot observe a torn count.
func (r *saleRepository) CountSalesByStore(executor SQLExecutor, storeID int64) (int, error) {
	var count int
	err := executor.QueryRow(`SELECT COUNT(*) FROM sales WHERE store_id = $1`, storeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting sales for store %d: %v", ErrDatabaseError, storeID, err)
	}
	return count, nil
}

func (r *saleRepository) getItemsBySaleID(saleID int64) ([]models.SaleItem, error) {
	query := `SELECT id, sale_id, batch_id, quantity, unit_price, created_at
	          FROM sale_items WHERE sale_id = $1 ORDER BY id ASC`

	rows, err := r.db.Query(query, saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sale items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.SaleItem{}
	for rows.Next() {
		var item models.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.BatchID, &item.Quantity, &item.UnitPrice, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning sale item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}
