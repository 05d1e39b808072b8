package services

import (
	"fmt"
	"time"

	"pharmapos_backend/internal/models"
	"pharmapos_backend/internal/repositories"
)

// ExpiryService zeroes expired and soon-to-expire stock. Sweeps are
// idempotent: a zeroed batch no longer matches the selection, so running the
// same sweep twice writes nothing the second time.
type ExpiryService struct {
	batchRepo   repositories.BatchRepository
	catalogRepo repositories.CatalogRepository
	ledger      *LedgerService
	transactor  Transactor
}

// NewExpiryService creates a new instance of ExpiryService.
func NewExpiryService(
	batchRepo repositories.BatchRepository,
	catalogRepo repositories.CatalogRepository,
	ledger *LedgerService,
	transactor Transactor,
) *ExpiryService {
	return &ExpiryService{
		batchRepo:   batchRepo,
		catalogRepo: catalogRepo,
		ledger:      ledger,
		transactor:  transactor,
	}
}

// ExpireWithinDays zeroes every in-stock batch at the store whose expiry
// falls within the horizon, all in one transaction, and returns the number
// of batches expired.
func (s *ExpiryService) ExpireWithinDays(storeID int64, days int, userID int64) (int, error) {
	if days < 0 {
		return 0, fmt.Errorf("%w: horizon days must not be negative", ErrValidation)
	}

	cutoff := endOfDay(time.Now().AddDate(0, 0, days))
	expired := 0

	err := s.transactor.WithinTx(func(executor repositories.SQLExecutor) error {
		batches, err := s.batchRepo.ExpiringBatchesForUpdate(executor, storeID, cutoff)
		if err != nil {
			return err
		}
		for _, batch := range batches {
			note := fmt.Sprintf("expired %s", batch.ExpiryDate.Format("2006-01-02"))
			if _, err := s.ledger.Mutate(executor, batch.ID, -batch.Quantity,
				models.ChangeTypeExpired, userID, nil, notesPtr(note)); err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}

// ExpireAllStores sweeps every store with the same horizon and returns the
// per-store counts. Each store sweeps in its own transaction so one store's
// failure does not undo the others.
func (s *ExpiryService) ExpireAllStores(days int, userID int64) (map[int64]int, error) {
	stores, err := s.catalogRepo.GetAllStores()
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int, len(stores))
	for _, store := range stores {
		count, err := s.ExpireWithinDays(store.ID, days, userID)
		if err != nil {
			return counts, fmt.Errorf("sweeping store %d: %w", store.ID, err)
		}
		counts[store.ID] = count
	}
	return counts, nil
}
