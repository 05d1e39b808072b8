package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pharmapos_backend/internal/models"
	"pharmapos_backend/internal/repositories"
)

// Payment methods accepted at the point of sale.
var validPaymentMethods = map[string]bool{
	"cash":     true,
	"card":     true,
	"transfer": true,
}

// SaleService coordinates point-of-sale transactions. A sale either fully
// commits, deducting every line from its batch with a matching audit entry,
// or leaves no trace.
type SaleService struct {
	saleRepo    repositories.SaleRepository
	batchRepo   repositories.BatchRepository
	catalogRepo repositories.CatalogRepository
	ledger      *LedgerService
	transactor  Transactor
}

// NewSaleService creates a new instance of SaleService.
func NewSaleService(
	saleRepo repositories.SaleRepository,
	batchRepo repositories.BatchRepository,
	catalogRepo repositories.CatalogRepository,
	ledger *LedgerService,
	transactor Transactor,
) *SaleService {
	return &SaleService{
		saleRepo:    saleRepo,
		batchRepo:   batchRepo,
		catalogRepo: catalogRepo,
		ledger:      ledger,
		transactor:  transactor,
	}
}

// SaleItemInput is one line of a sale request, pinned to a specific batch.
type SaleItemInput struct {
	BatchID   int64           `json:"batch_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// CreateSaleInput is a complete sale request. IdempotencyKey lets a client
// retry a request safely; when absent a fresh key is generated and the
// request behaves as a one-shot.
type CreateSaleInput struct {
	StoreID          int64           `json:"store_id" binding:"required"`
	Items            []SaleItemInput `json:"items" binding:"required"`
	PaymentMethod    string          `json:"payment_method" binding:"required"`
	AmountPaid       decimal.Decimal `json:"amount_paid" binding:"required"`
	PaymentReference *string         `json:"payment_reference,omitempty"`
	IdempotencyKey   string          `json:"idempotency_key,omitempty"`
}

// CreateSale validates the request, checks payment against the computed
// total before any write, then performs the whole sale in one transaction:
// header, line items and one ledger mutation per line with the batch rows
// locked. Insufficient stock on any line aborts the entire sale. A repeated
// idempotency key returns the sale the first attempt created instead of
// selling twice.
func (s *SaleService) CreateSale(input CreateSaleInput, userID int64) (*models.Sale, error) {
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: sale must contain at least one item", ErrValidation)
	}
	if !validPaymentMethods[input.PaymentMethod] {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, input.PaymentMethod)
	}

	total := decimal.Zero
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: sale item quantity must be positive", ErrInvalidQuantity)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: unit price must not be negative", ErrValidation)
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if input.AmountPaid.LessThan(total) {
		return nil, fmt.Errorf("%w: total %s exceeds amount paid %s",
			ErrInsufficientPayment, total.String(), input.AmountPaid.String())
	}

	idempotencyKey := input.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	} else {
		existing, err := s.saleRepo.GetSaleByIdempotencyKey(idempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}

	sale := &models.Sale{
		IdempotencyKey:   idempotencyKey,
		TotalAmount:      total,
		AmountPaid:       input.AmountPaid,
		ChangeAmount:     input.AmountPaid.Sub(total),
		PaymentMethod:    input.PaymentMethod,
		PaymentReference: input.PaymentReference,
		StoreID:          input.StoreID,
		UserID:           userID,
	}

	err := s.transactor.WithinTx(func(executor repositories.SQLExecutor) error {
		// The store row lock serializes concurrent sales at one store so the
		// receipt sequence read below cannot collide.
		if _, err := s.catalogRepo.GetStoreForUpdate(executor, input.StoreID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: store %d", ErrNotFound, input.StoreID)
			}
			return err
		}

		// Lock every batch up front and verify coverage before writing the
		// header, so a short line never leaves a partial sale behind.
		for _, item := range input.Items {
			batch, err := s.batchRepo.GetBatchForUpdate(executor, item.BatchID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("%w: batch %d", ErrNotFound, item.BatchID)
				}
				return err
			}
			if batch.StoreID != input.StoreID {
				return fmt.Errorf("%w: batch %d does not belong to store %d",
					ErrValidation, item.BatchID, input.StoreID)
			}
			if batch.Quantity < item.Quantity {
				return fmt.Errorf("%w: batch %d holds %d, requested %d",
					ErrInsufficientStock, item.BatchID, batch.Quantity, item.Quantity)
			}
		}

		receiptNumber, err := s.nextReceiptNumber(executor, input.StoreID)
		if err != nil {
			return err
		}
		sale.ReceiptNumber = receiptNumber

		if _, err := s.saleRepo.CreateSale(executor, sale); err != nil {
			return err
		}

		for _, item := range input.Items {
			saleItem := &models.SaleItem{
				SaleID:    sale.ID,
				BatchID:   item.BatchID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			}
			if _, err := s.saleRepo.CreateSaleItem(executor, saleItem); err != nil {
				return err
			}
			sale.Items = append(sale.Items, *saleItem)

			saleID := sale.ID
			if _, err := s.ledger.Mutate(executor, item.BatchID, -item.Quantity,
				models.ChangeTypeSale, userID, &saleID, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		sale.Items = nil
		// A duplicate key here means another request with the same
		// idempotency key committed first; hand back its sale.
		if errors.Is(err, repositories.ErrDuplicateKey) {
			if existing, lookupErr := s.saleRepo.GetSaleByIdempotencyKey(idempotencyKey); lookupErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}
	return sale, nil
}

// nextReceiptNumber builds the per-store receipt number. The count runs on
// the sale transaction after the store row lock is taken, so concurrent
// sales at one store read strictly increasing counts.
func (s *SaleService) nextReceiptNumber(executor repositories.SQLExecutor, storeID int64) (string, error) {
	count, err := s.saleRepo.CountSalesByStore(executor, storeID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RCP-%d-%s-%05d", storeID, time.Now().Format("20060102150405"), count+1), nil
}

// GetSale returns one sale with its line items.
func (s *SaleService) GetSale(saleID int64) (*models.Sale, error) {
	sale, err := s.saleRepo.GetSaleByID(saleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: sale %d", ErrNotFound, saleID)
		}
		return nil, err
	}
	return sale, nil
}

// GetSalesByDate lists a store's sales for one calendar day, newest first.
func (s *SaleService) GetSalesByDate(storeID int64, date time.Time) ([]models.Sale, error) {
	return s.saleRepo.GetSalesByDate(storeID, date)
}
