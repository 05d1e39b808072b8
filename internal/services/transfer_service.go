package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pharmapos_backend/internal/models"
	"pharmapos_backend/internal/repositories"
)

// TransferService moves stock between stores. Source batches are consumed in
// FEFO order; destination batches keep the source batch number and expiry so
// nothing is lost in transit.
type TransferService struct {
	transferRepo repositories.TransferRepository
	batchRepo    repositories.BatchRepository
	catalogRepo  repositories.CatalogRepository
	ledger       *LedgerService
	transactor   Transactor
}

// NewTransferService creates a new instance of TransferService.
func NewTransferService(
	transferRepo repositories.TransferRepository,
	batchRepo repositories.BatchRepository,
	catalogRepo repositories.CatalogRepository,
	ledger *LedgerService,
	transactor Transactor,
) *TransferService {
	return &TransferService{
		transferRepo: transferRepo,
		batchRepo:    batchRepo,
		catalogRepo:  catalogRepo,
		ledger:       ledger,
		transactor:   transactor,
	}
}

// TransferInput is a request to move a quantity of one product between
// stores.
type TransferInput struct {
	ProductID   int64 `json:"product_id" binding:"required"`
	FromStoreID int64 `json:"from_store_id" binding:"required"`
	ToStoreID   int64 `json:"to_store_id" binding:"required"`
	Quantity    int   `json:"quantity" binding:"required"`
}

// TransferResult reports what one transfer request did. Transfers carries
// one record per consumed source batch, all sharing the Reference code.
type TransferResult struct {
	Reference string            `json:"reference"`
	Transfers []models.Transfer `json:"transfers"`
}

// Transfer moves stock in one transaction. Source batches are locked FOR
// UPDATE and consumed in FEFO order; a shortfall aborts everything. At the
// destination the quantity merges into an existing batch with the same batch
// number or lands in a new batch preserving the source expiry. Every source
// deduction and destination addition goes through the ledger, so the total
// quantity across both stores is conserved.
func (s *TransferService) Transfer(input TransferInput, userID int64) (*TransferResult, error) {
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: transfer quantity must be positive", ErrInvalidQuantity)
	}
	if input.FromStoreID == input.ToStoreID {
		return nil, fmt.Errorf("%w: source and destination store must differ", ErrValidation)
	}
	if _, err := s.catalogRepo.GetProductByID(input.ProductID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, input.ProductID)
		}
		return nil, err
	}
	for _, storeID := range []int64{input.FromStoreID, input.ToStoreID} {
		if _, err := s.catalogRepo.GetStoreByID(storeID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: store %d", ErrNotFound, storeID)
			}
			return nil, err
		}
	}

	result := &TransferResult{Reference: uuid.NewString()}

	err := s.transactor.WithinTx(func(executor repositories.SQLExecutor) error {
		sourceBatches, err := s.batchRepo.AvailableBatchesForUpdate(executor, input.ProductID, input.FromStoreID)
		if err != nil {
			return err
		}

		plan := AllocateFEFO(sourceBatches, input.Quantity)
		if !plan.Covered() {
			return fmt.Errorf("%w: store %d holds %d of product %d, requested %d",
				ErrInsufficientStock, input.FromStoreID, plan.Allocated, input.ProductID, input.Quantity)
		}

		for _, allocation := range plan.Allocations {
			source := allocation.Batch

			if _, err := s.ledger.Mutate(executor, source.ID, -allocation.Quantity,
				models.ChangeTypeTransferOut, userID, nil, notesPtr(fmt.Sprintf("to store %d", input.ToStoreID))); err != nil {
				return err
			}

			if err := s.receiveAtDestination(executor, source, input.ToStoreID, allocation.Quantity, userID); err != nil {
				return err
			}

			transfer := &models.Transfer{
				Reference:   result.Reference,
				ProductID:   input.ProductID,
				BatchNumber: source.BatchNumber,
				Quantity:    allocation.Quantity,
				FromStoreID: input.FromStoreID,
				ToStoreID:   input.ToStoreID,
				Status:      models.TransferStatusReceived,
			}
			if _, err := s.transferRepo.CreateTransfer(executor, transfer); err != nil {
				return err
			}
			result.Transfers = append(result.Transfers, *transfer)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// receiveAtDestination merges into an existing destination batch with the
// same batch number or creates a new zero-quantity batch first, so the only
// quantity change is the ledger mutation.
func (s *TransferService) receiveAtDestination(
	executor repositories.SQLExecutor,
	source models.Batch,
	toStoreID int64,
	quantity int,
	userID int64,
) error {
	dest, err := s.batchRepo.FindByBatchNumberForUpdate(executor, source.ProductID, toStoreID, source.BatchNumber)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		newBatch := &models.Batch{
			ProductID:            source.ProductID,
			StoreID:              toStoreID,
			BatchNumber:          source.BatchNumber,
			Quantity:             0,
			ExpiryDate:           source.ExpiryDate,
			CostPrice:            source.CostPrice,
			SellingPriceOverride: source.SellingPriceOverride,
		}
		if _, err := s.batchRepo.CreateBatch(executor, newBatch); err != nil {
			return err
		}
		dest = newBatch
	}

	_, err = s.ledger.Mutate(executor, dest.ID, quantity,
		models.ChangeTypeTransferIn, userID, nil, notesPtr(fmt.Sprintf("from store %d", source.StoreID)))
	return err
}

// GetTransfersByReference returns all records of one transfer request.
func (s *TransferService) GetTransfersByReference(reference string) ([]models.Transfer, error) {
	transfers, err := s.transferRepo.GetTransfersByReference(reference)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: transfer %s", ErrNotFound, reference)
		}
		return nil, err
	}
	return transfers, nil
}

// GetTransfersByStore lists recent transfers touching a store.
func (s *TransferService) GetTransfersByStore(storeID int64, limit int) ([]models.Transfer, error) {
	return s.transferRepo.GetTransfersByStore(storeID, limit)
}
