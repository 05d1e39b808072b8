package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos_backend/internal/models"
	"pharmapos_backend/internal/repositories"
)

// LedgerService owns every quantity change in the system. All writes funnel
// through Mutate so the non-negative invariant and the one-audit-entry-per-
// mutation rule cannot be bypassed.
type LedgerService struct {
	batchRepo   repositories.BatchRepository
	auditRepo   repositories.AuditRepository
	catalogRepo repositories.CatalogRepository
	transactor  Transactor
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	batchRepo repositories.BatchRepository,
	auditRepo repositories.AuditRepository,
	catalogRepo repositories.CatalogRepository,
	transactor Transactor,
) *LedgerService {
	return &LedgerService{
		batchRepo:   batchRepo,
		auditRepo:   auditRepo,
		catalogRepo: catalogRepo,
		transactor:  transactor,
	}
}

// ReceiveStockInput describes an incoming delivery of one batch.
type ReceiveStockInput struct {
	ProductID            int64               `json:"product_id" binding:"required"`
	StoreID              int64               `json:"store_id" binding:"required"`
	BatchNumber          string              `json:"batch_number" binding:"required"`
	Quantity             int                 `json:"quantity" binding:"required"`
	ExpiryDate           time.Time           `json:"expiry_date" binding:"required"`
	CostPrice            decimal.Decimal     `json:"cost_price"`
	SellingPriceOverride decimal.NullDecimal `json:"selling_price_override"`
}

// ReceiveStock records an incoming delivery. A new batch row is always
// created, even when the batch number already exists at the store, so each
// delivery keeps its own expiry date and cost. The batch and its receipt
// audit entry are written in one transaction.
func (s *LedgerService) ReceiveStock(input ReceiveStockInput, userID int64) (*models.Batch, error) {
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: received quantity must be positive", ErrInvalidQuantity)
	}
	if input.BatchNumber == "" {
		return nil, fmt.Errorf("%w: batch number is required", ErrValidation)
	}

	if _, err := s.catalogRepo.GetProductByID(input.ProductID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, input.ProductID)
		}
		return nil, err
	}
	if _, err := s.catalogRepo.GetStoreByID(input.StoreID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: store %d", ErrNotFound, input.StoreID)
		}
		return nil, err
	}

	batch := &models.Batch{
		ProductID:            input.ProductID,
		StoreID:              input.StoreID,
		BatchNumber:          input.BatchNumber,
		Quantity:             input.Quantity,
		ExpiryDate:           input.ExpiryDate,
		CostPrice:            input.CostPrice,
		SellingPriceOverride: input.SellingPriceOverride,
	}

	err := s.transactor.WithinTx(func(executor repositories.SQLExecutor) error {
		if _, err := s.batchRepo.CreateBatch(executor, batch); err != nil {
			return err
		}
		entry := &models.AuditEntry{
			BatchID:          batch.ID,
			PreviousQuantity: 0,
			NewQuantity:      batch.Quantity,
			ChangeType:       models.ChangeTypeReceipt,
			UserID:           userID,
		}
		_, err := s.auditRepo.CreateEntry(executor, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// Mutate is the single quantity-change path. It locks the batch row, applies
// the delta, rejects any result below zero and writes exactly one audit entry
// on the same executor. Callers already holding the row lock in the same
// transaction re-enter the lock for free and read the current quantity.
func (s *LedgerService) Mutate(
	executor repositories.SQLExecutor,
	batchID int64,
	delta int,
	changeType string,
	userID int64,
	referenceID *int64,
	notes *string,
) (*models.Batch, error) {
	batch, err := s.batchRepo.GetBatchForUpdate(executor, batchID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: batch %d", ErrNotFound, batchID)
		}
		return nil, err
	}

	newQuantity := batch.Quantity + delta
	if newQuantity < 0 {
		return nil, fmt.Errorf("%w: batch %d holds %d, delta %d would go negative",
			ErrInvalidQuantity, batchID, batch.Quantity, delta)
	}

	now := time.Now()
	if err := s.batchRepo.UpdateQuantity(executor, batchID, newQuantity, now); err != nil {
		return nil, err
	}

	entry := &models.AuditEntry{
		BatchID:          batchID,
		PreviousQuantity: batch.Quantity,
		NewQuantity:      newQuantity,
		ChangeType:       changeType,
		ReferenceID:      referenceID,
		Notes:            notes,
		UserID:           userID,
	}
	if _, err := s.auditRepo.CreateEntry(executor, entry); err != nil {
		return nil, err
	}

	batch.Quantity = newQuantity
	batch.UpdatedAt = now
	return batch, nil
}

// AvailableBatches returns the FEFO-ordered in-stock batches for a product
// at a store.
func (s *LedgerService) AvailableBatches(productID, storeID int64) ([]models.Batch, error) {
	return s.batchRepo.AvailableBatches(productID, storeID)
}

// PlanAllocation computes a FEFO plan against a read-only snapshot of
// available stock. Nothing is locked or mutated; the plan is advisory.
func (s *LedgerService) PlanAllocation(productID, storeID int64, quantity int) (*AllocationPlan, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: requested quantity must be positive", ErrInvalidQuantity)
	}
	batches, err := s.batchRepo.AvailableBatches(productID, storeID)
	if err != nil {
		return nil, err
	}
	plan := AllocateFEFO(batches, quantity)
	return &plan, nil
}

// AdjustStock applies an ad-hoc signed correction to one batch.
func (s *LedgerService) AdjustStock(batchID int64, delta int, reason string, userID int64) (*models.Batch, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: adjustment delta must be non-zero", ErrInvalidQuantity)
	}
	var batch *models.Batch
	err := s.transactor.WithinTx(func(executor repositories.SQLExecutor) error {
		var err error
		batch, err = s.Mutate(executor, batchID, delta, models.ChangeTypeAdjustment, userID, nil, notesPtr(reason))
		return err
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// WriteOffBatch zeroes a batch, recording the full quantity as an
// adjustment. The batch row survives for audit linkage.
func (s *LedgerService) WriteOffBatch(batchID int64, reason string, userID int64) (*models.Batch, error) {
	var batch *models.Batch
	err := s.transactor.WithinTx(func(executor repositories.SQLExecutor) error {
		current, err := s.batchRepo.GetBatchForUpdate(executor, batchID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: batch %d", ErrNotFound, batchID)
			}
			return err
		}
		if current.Quantity == 0 {
			return fmt.Errorf("%w: batch %d is already empty", ErrInvalidState, batchID)
		}
		batch, err = s.Mutate(executor, batchID, -current.Quantity, models.ChangeTypeAdjustment, userID, nil, notesPtr(reason))
		return err
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// GetBatch returns one batch by id.
func (s *LedgerService) GetBatch(batchID int64) (*models.Batch, error) {
	batch, err := s.batchRepo.GetBatchByID(batchID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: batch %d", ErrNotFound, batchID)
		}
		return nil, err
	}
	return batch, nil
}

// StoreInventory lists all in-stock batches at a store in FEFO order.
func (s *LedgerService) StoreInventory(storeID int64) ([]models.Batch, error) {
	return s.batchRepo.StoreInventory(storeID)
}

// ExpiringBatches lists in-stock batches expiring within the given horizon.
func (s *LedgerService) ExpiringBatches(storeID int64, days int) ([]models.Batch, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: horizon days must not be negative", ErrValidation)
	}
	cutoff := endOfDay(time.Now().AddDate(0, 0, days))
	return s.batchRepo.ExpiringBatches(storeID, cutoff)
}

// LowStockBatches lists in-stock batches below the given threshold.
func (s *LedgerService) LowStockBatches(storeID int64, threshold int) ([]models.Batch, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("%w: threshold must be positive", ErrValidation)
	}
	return s.batchRepo.LowStockBatches(storeID, threshold)
}

// ProductStock returns the summed quantity of one product at one store.
func (s *LedgerService) ProductStock(productID, storeID int64) (int, error) {
	return s.batchRepo.ProductStock(productID, storeID)
}

// GetAuditTrail returns a filtered page of audit entries plus the total
// match count.
func (s *LedgerService) GetAuditTrail(filters models.AuditFilters) ([]models.AuditEntry, int, error) {
	return s.auditRepo.GetEntries(filters)
}

// GetBatchHistory replays one batch's full audit chain, oldest first.
func (s *LedgerService) GetBatchHistory(batchID int64) ([]models.AuditEntry, error) {
	if _, err := s.batchRepo.GetBatchByID(batchID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: batch %d", ErrNotFound, batchID)
		}
		return nil, err
	}
	return s.auditRepo.GetEntriesByBatchID(batchID)
}

func notesPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
