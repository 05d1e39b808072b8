package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"pharmapos_backend/internal/models"
)

// CatalogRepository manages the product and store reference data.
type CatalogRepository interface {
	CreateProduct(executor SQLExecutor, product *models.Product) (int64, error)
	GetProductByID(productID int64) (*models.Product, error)
	GetAllProducts(activeOnly bool) ([]models.Product, error)
	UpdateProduct(executor SQLExecutor, product *models.Product) error

	CreateStore(executor SQLExecutor, store *models.Store) (int64, error)
	GetStoreByID(storeID int64) (*models.Store, error)
	GetStoreForUpdate(executor SQLExecutor, storeID int64) (*models.Store, error)
	GetAllStores() ([]models.Store, error)
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

const productColumns = `id, name, generic_name, sku, barcode, nafdac_number,
	       cost_price, selling_price, description, is_active, created_at, updated_at`

func scanProduct(s scanner) (*models.Product, error) {
	p := &models.Product{}
	err := s.Scan(
		&p.ID, &p.Name, &p.GenericName, &p.SKU, &p.Barcode, &p.NafdacNumber,
		&p.CostPrice, &p.SellingPrice, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *catalogRepository) CreateProduct(executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO products
	            (name, generic_name, sku, barcode, nafdac_number, cost_price, selling_price,
	             description, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`

	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	err := executor.QueryRow(query,
		product.Name, product.GenericName, product.SKU, product.Barcode, product.NafdacNumber,
		product.CostPrice, product.SellingPrice, product.Description, product.IsActive,
		product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, ErrDuplicateKey
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return product.ID, nil
}

func (r *catalogRepository) GetProductByID(productID int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	product, err := scanProduct(r.db.QueryRow(query, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, productID, err)
	}
	return product, nil
}

func (r *catalogRepository) GetAllProducts(activeOnly bool) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, *product)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *catalogRepository) UpdateProduct(executor SQLExecutor, product *models.Product) error {
	query := `UPDATE products
	          SET name = $1, generic_name = $2, sku = $3, barcode = $4, nafdac_number = $5,
	              cost_price = $6, selling_price = $7, description = $8, is_active = $9, updated_at = $10
	          WHERE id = $11`

	product.UpdatedAt = time.Now()

	result, err := executor.Exec(query,
		product.Name, product.GenericName, product.SKU, product.Barcode, product.NafdacNumber,
		product.CostPrice, product.SellingPrice, product.Description, product.IsActive,
		product.UpdatedAt, product.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateKey
		}
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for product update ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *catalogRepository) CreateStore(executor SQLExecutor, store *models.Store) (int64, error) {
	query := `INSERT INTO stores (name, address, is_primary, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	now := time.Now()
	store.CreatedAt = now
	store.UpdatedAt = now

	err := executor.QueryRow(query,
		store.Name, store.Address, store.IsPrimary, store.CreatedAt, store.UpdatedAt,
	).Scan(&store.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating store: %v", ErrDatabaseError, err)
	}
	return store.ID, nil
}

func (r *catalogRepository) GetStoreByID(storeID int64) (*models.Store, error) {
	query := `SELECT id, name, address, is_primary, created_at, updated_at FROM stores WHERE id = $1`
	store := &models.Store{}
	err := r.db.QueryRow(query, storeID).Scan(
		&store.ID, &store.Name, &store.Address, &store.IsPrimary, &store.CreatedAt, &store.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting store by ID %d: %v", ErrDatabaseError, storeID, err)
	}
	return store, nil
}

// GetStoreForUpdate locks the store row for the calling transaction. Sales
// take this lock before reading the per-store receipt sequence, so two sales
// at one store cannot draw the same sequence number.
func (r *catalogRepository) GetStoreForUpdate(executor SQLExecutor, storeID int64) (*models.Store, error) {
	query := `SELECT id, name, address, is_primary, created_at, updated_at
	          FROM stores WHERE id = $1 FOR UPDATE`
	store := &models.Store{}
	err := executor.QueryRow(query, storeID).Scan(
		&store.ID, &store.Name, &store.Address, &store.IsPrimary, &store.CreatedAt, &store.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking store ID %d: %v", ErrDatabaseError, storeID, err)
	}
	return store, nil
}

func (r *catalogRepository) GetAllStores() ([]models.Store, error) {
	query := `SELECT id, name, address, is_primary, created_at, updated_at
	          FROM stores ORDER BY is_primary DESC, name ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying stores: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	stores := []models.Store{}
	for rows.Next() {
		var store models.Store
		err := rows.Scan(&store.ID, &store.Name, &store.Address, &store.IsPrimary, &store.CreatedAt, &store.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning store: %v", ErrDatabaseError, err)
		}
		stores = append(stores, store)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating store rows: %v", ErrDatabaseError, err)
	}
	return stores, nil
}
