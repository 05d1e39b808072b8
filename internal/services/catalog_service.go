package services

import (
	"errors"
	"fmt"

	"pharmapos_backend/internal/models"
	"pharmapos_backend/internal/repositories"
)

// CatalogService manages product and store reference data.
type CatalogService struct {
	catalogRepo repositories.CatalogRepository
	transactor  Transactor
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(catalogRepo repositories.CatalogRepository, transactor Transactor) *CatalogService {
	return &CatalogService{catalogRepo: catalogRepo, transactor: transactor}
}

// CreateProduct adds a catalog entry. SKU uniqueness is enforced by the
// database; a duplicate surfaces as ErrValidation.
func (s *CatalogService) CreateProduct(product *models.Product) error {
	if product.Name == "" || product.SKU == "" || product.NafdacNumber == "" {
		return fmt.Errorf("%w: name, sku and nafdac_number are required", ErrValidation)
	}
	product.IsActive = true

	err := s.transactor.WithinTx(func(executor repositories.SQLExecutor) error {
		_, err := s.catalogRepo.CreateProduct(executor, product)
		return err
	})
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return fmt.Errorf("%w: product with this SKU or barcode already exists", ErrValidation)
	}
	return err
}

// GetProduct returns one product by id.
func (s *CatalogService) GetProduct(productID int64) (*models.Product, error) {
	product, err := s.catalogRepo.GetProductByID(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, err
	}
	return product, nil
}

// ListProducts lists catalog entries, optionally active ones only.
func (s *CatalogService) ListProducts(activeOnly bool) ([]models.Product, error) {
	return s.catalogRepo.GetAllProducts(activeOnly)
}

// DeactivateProduct hides a product from the active catalog. Existing
// batches and history are untouched.
func (s *CatalogService) DeactivateProduct(productID int64) error {
	product, err := s.GetProduct(productID)
	if err != nil {
		return err
	}
	product.IsActive = false

	return s.transactor.WithinTx(func(executor repositories.SQLExecutor) error {
		return s.catalogRepo.UpdateProduct(executor, product)
	})
}

// CreateStore adds a store.
func (s *CatalogService) CreateStore(store *models.Store) error {
	if store.Name == "" {
		return fmt.Errorf("%w: store name is required", ErrValidation)
	}
	return s.transactor.WithinTx(func(executor repositories.SQLExecutor) error {
		_, err := s.catalogRepo.CreateStore(executor, store)
		return err
	})
}

// GetStore returns one store by id.
func (s *CatalogService) GetStore(storeID int64) (*models.Store, error) {
	store, err := s.catalogRepo.GetStoreByID(storeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: store %d", ErrNotFound, storeID)
		}
		return nil, err
	}
	return store, nil
}

// ListStores lists all stores, primary first.
func (s *CatalogService) ListStores() ([]models.Store, error) {
	return s.catalogRepo.GetAllStores()
}
