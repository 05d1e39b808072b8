package services

import (
	"errors"
	"fmt"
	"time"

	"pharmapos_backend/internal/models"
	"pharmapos_backend/internal/repositories"
)

// ReconciliationService runs physical-count sessions. Recording counts never
// touches stock; only completion with adjustments enabled mutates, and every
// adjustment is recomputed against the live quantity at apply time.
type ReconciliationService struct {
	reconciliationRepo repositories.ReconciliationRepository
	batchRepo          repositories.BatchRepository
	catalogRepo        repositories.CatalogRepository
	ledger             *LedgerService
	transactor         Transactor
}

// NewReconciliationService creates a new instance of ReconciliationService.
func NewReconciliationService(
	reconciliationRepo repositories.ReconciliationRepository,
	batchRepo repositories.BatchRepository,
	catalogRepo repositories.CatalogRepository,
	ledger *LedgerService,
	transactor Transactor,
) *ReconciliationService {
	return &ReconciliationService{
		reconciliationRepo: reconciliationRepo,
		batchRepo:          batchRepo,
		catalogRepo:        catalogRepo,
		ledger:             ledger,
		transactor:         transactor,
	}
}

// ReconciliationSummary reports the outcome of a completed session.
type ReconciliationSummary struct {
	ReconciliationID  int64 `json:"reconciliation_id"`
	TotalItems        int   `json:"total_items"`
	ItemsWithVariance int   `json:"items_with_variance"`
	TotalVariance     int   `json:"total_variance"`
	AdjustmentsMade   int   `json:"adjustments_made"`
}

// Start opens a count session for a store.
func (s *ReconciliationService) Start(storeID, userID int64, notes string) (*models.Reconciliation, error) {
	if _, err := s.catalogRepo.GetStoreByID(storeID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: store %d", ErrNotFound, storeID)
		}
		return nil, err
	}

	rec := &models.Reconciliation{
		StoreID: storeID,
		UserID:  userID,
		Notes:   notesPtr(notes),
	}

	err := s.transactor.WithinTx(func(executor repositories.SQLExecutor) error {
		_, err := s.reconciliationRepo.CreateReconciliation(executor, rec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RecordCount stores one physical count against an open session. The system
// quantity is captured as of now and the variance derived from it; stock is
// not mutated.
func (s *ReconciliationService) RecordCount(reconciliationID, batchID int64, countedQuantity int) (*models.ReconciliationItem, error) {
	if countedQuantity < 0 {
		return nil, fmt.Errorf("%w: counted quantity must not be negative", ErrInvalidQuantity)
	}

	rec, err := s.reconciliationRepo.GetReconciliationByID(reconciliationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: reconciliation %d", ErrNotFound, reconciliationID)
		}
		return nil, err
	}
	if rec.CompletedAt != nil {
		return nil, fmt.Errorf("%w: reconciliation %d is completed", ErrInvalidState, reconciliationID)
	}

	batch, err := s.batchRepo.GetBatchByID(batchID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: batch %d", ErrNotFound, batchID)
		}
		return nil, err
	}
	if batch.StoreID != rec.StoreID {
		return nil, fmt.Errorf("%w: batch %d does not belong to store %d", ErrValidation, batchID, rec.StoreID)
	}

	item := &models.ReconciliationItem{
		ReconciliationID: reconciliationID,
		BatchID:          batchID,
		SystemQuantity:   batch.Quantity,
		CountedQuantity:  countedQuantity,
		Variance:         countedQuantity - batch.Quantity,
	}

	err = s.transactor.WithinTx(func(executor repositories.SQLExecutor) error {
		_, err := s.reconciliationRepo.CreateItem(executor, item)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Complete closes a session and returns its summary. With applyAdjustments
// set, each counted batch is re-read under lock and adjusted to its counted
// quantity; the delta is recomputed against the live quantity, not the one
// captured at count time, so mutations that happened mid-session are not
// double-corrected. Completing an already-completed session fails.
func (s *ReconciliationService) Complete(reconciliationID, userID int64, applyAdjustments bool) (*ReconciliationSummary, error) {
	summary := &ReconciliationSummary{ReconciliationID: reconciliationID}

	err := s.transactor.WithinTx(func(executor repositories.SQLExecutor) error {
		rec, err := s.reconciliationRepo.GetReconciliationForUpdate(executor, reconciliationID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: reconciliation %d", ErrNotFound, reconciliationID)
			}
			return err
		}
		if rec.CompletedAt != nil {
			return fmt.Errorf("%w: reconciliation %d is already completed", ErrInvalidState, reconciliationID)
		}

		items, err := s.reconciliationRepo.GetItemsByReconciliationID(reconciliationID)
		if err != nil {
			return err
		}

		for _, item := range items {
			summary.TotalItems++
			if item.Variance != 0 {
				summary.ItemsWithVariance++
				summary.TotalVariance += item.Variance
			}

			if !applyAdjustments {
				continue
			}

			batch, err := s.batchRepo.GetBatchForUpdate(executor, item.BatchID)
			if err != nil {
				return err
			}
			delta := item.CountedQuantity - batch.Quantity
			if delta == 0 {
				continue
			}
			recID := reconciliationID
			if _, err := s.ledger.Mutate(executor, item.BatchID, delta,
				models.ChangeTypeReconciliation, userID, &recID, nil); err != nil {
				return err
			}
			summary.AdjustmentsMade++
		}

		return s.reconciliationRepo.CompleteReconciliation(executor, reconciliationID, time.Now())
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// GetReconciliation returns one session with its recorded items.
func (s *ReconciliationService) GetReconciliation(reconciliationID int64) (*models.Reconciliation, []models.ReconciliationItem, error) {
	rec, err := s.reconciliationRepo.GetReconciliationByID(reconciliationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: reconciliation %d", ErrNotFound, reconciliationID)
		}
		return nil, nil, err
	}
	items, err := s.reconciliationRepo.GetItemsByReconciliationID(reconciliationID)
	if err != nil {
		return nil, nil, err
	}
	return rec, items, nil
}
