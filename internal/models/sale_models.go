package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a completed point-of-sale transaction. Totals are computed at
// creation and never mutated afterwards.
type Sale struct {
	ID               int64           `json:"id" db:"id"`
	ReceiptNumber    string          `json:"receipt_number" db:"receipt_number"`
	IdempotencyKey   string          `json:"idempotency_key" db:"idempotency_key"`
	TotalAmount      decimal.Decimal `json:"total_amount" db:"total_amount"`
	AmountPaid       decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	ChangeAmount     decimal.Decimal `json:"change_amount" db:"change_amount"`
	PaymentMethod    string          `json:"payment_method" db:"payment_method"` // 'cash', 'card', 'transfer'
	PaymentReference *string         `json:"payment_reference,omitempty" db:"payment_reference"`
	StoreID          int64           `json:"store_id" db:"store_id"`
	UserID           int64           `json:"user_id" db:"user_id"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`

	Items []SaleItem `json:"items,omitempty"`
}

// SaleItem consumes a fixed quantity of exactly one batch at a fixed price.
type SaleItem struct {
	ID        int64           `json:"id" db:"id"`
	SaleID    int64           `json:"sale_id" db:"sale_id"`
	BatchID   int64           `json:"batch_id" db:"batch_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
