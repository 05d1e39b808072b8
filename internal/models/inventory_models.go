package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Audit change types. Every quantity transition carries exactly one of these.
const (
	ChangeTypeReceipt        = "receipt"
	ChangeTypeSale           = "sale"
	ChangeTypeTransferOut    = "transfer_out"
	ChangeTypeTransferIn     = "transfer_in"
	ChangeTypeReserve        = "reserve"
	ChangeTypeRelease        = "release"
	ChangeTypeConfirmReserve = "confirm_reserve"
	ChangeTypeAdjustment     = "adjustment"
	ChangeTypeReconciliation = "reconciliation"
	ChangeTypeExpired        = "expired"
)

// Reservation statuses. active is the only non-terminal state.
const (
	ReservationStatusActive    = "active"
	ReservationStatusReleased  = "released"
	ReservationStatusConfirmed = "confirmed"
)

// Transfer statuses. Transfers are single-phase and marked received on
// creation; pending exists for forward compatibility with a two-phase flow.
const (
	TransferStatusPending  = "pending"
	TransferStatusReceived = "received"
)

// Batch is a discrete quantity of one product received at one store.
// Quantity is the only mutable field and must never go negative. Batches are
// zeroed on write-off/expiry, never deleted.
type Batch struct {
	ID                   int64               `json:"id" db:"id"`
	ProductID            int64               `json:"product_id" db:"product_id"`
	StoreID              int64               `json:"store_id" db:"store_id"`
	BatchNumber          string              `json:"batch_number" db:"batch_number"`
	Quantity             int                 `json:"quantity" db:"quantity"`
	ExpiryDate           time.Time           `json:"expiry_date" db:"expiry_date"`
	CostPrice            decimal.Decimal     `json:"cost_price" db:"cost_price"`
	SellingPriceOverride decimal.NullDecimal `json:"selling_price_override,omitempty" db:"selling_price_override"`
	ReceivedAt           time.Time           `json:"received_at" db:"received_at"`
	CreatedAt            time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at" db:"updated_at"`

	Product *Product `json:"product,omitempty"`
	Store   *Store   `json:"store,omitempty"`
}

// AuditEntry is one immutable quantity transition. new = previous + delta,
// one entry per ledger mutation, never updated or deleted.
type AuditEntry struct {
	ID               int64     `json:"id" db:"id"`
	BatchID          int64     `json:"batch_id" db:"batch_id"`
	PreviousQuantity int       `json:"previous_quantity" db:"previous_quantity"`
	NewQuantity      int       `json:"new_quantity" db:"new_quantity"`
	ChangeType       string    `json:"change_type" db:"change_type"`
	ReferenceID      *int64    `json:"reference_id,omitempty" db:"reference_id"`
	Notes            *string   `json:"notes,omitempty" db:"notes"`
	UserID           int64     `json:"user_id" db:"user_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`

	Batch *Batch `json:"batch,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// Delta is the signed quantity change this entry records.
func (e *AuditEntry) Delta() int {
	return e.NewQuantity - e.PreviousQuantity
}

// Reservation is a soft hold on a quantity of one batch. The held quantity
// is deducted from the batch for the lifetime of the hold.
type Reservation struct {
	ID        int64     `json:"id" db:"id"`
	BatchID   int64     `json:"batch_id" db:"batch_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Reason    string    `json:"reason" db:"reason"`
	Status    string    `json:"status" db:"status"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Transfer records one product's movement between two stores. A single
// transfer request may consume several source batches; each consumed batch
// produces its own row sharing the same reference code.
type Transfer struct {
	ID          int64     `json:"id" db:"id"`
	Reference   string    `json:"reference" db:"reference"`
	ProductID   int64     `json:"product_id" db:"product_id"`
	BatchNumber string    `json:"batch_number" db:"batch_number"`
	Quantity    int       `json:"quantity" db:"quantity"`
	FromStoreID int64     `json:"from_store_id" db:"from_store_id"`
	ToStoreID   int64     `json:"to_store_id" db:"to_store_id"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Reconciliation is a physical-count session for one store.
type Reconciliation struct {
	ID          int64      `json:"id" db:"id"`
	StoreID     int64      `json:"store_id" db:"store_id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	Notes       *string    `json:"notes,omitempty" db:"notes"`
	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// ReconciliationItem records one counted batch within a session. Variance is
// counted minus the system quantity captured at count time.
type ReconciliationItem struct {
	ID               int64 `json:"id" db:"id"`
	ReconciliationID int64 `json:"reconciliation_id" db:"reconciliation_id"`
	BatchID          int64 `json:"batch_id" db:"batch_id"`
	SystemQuantity   int   `json:"system_quantity" db:"system_quantity"`
	CountedQuantity  int   `json:"counted_quantity" db:"counted_quantity"`
	Variance         int   `json:"variance" db:"variance"`
}

// AuditFilters narrows audit-trail listings.
type AuditFilters struct {
	BatchID    *int64
	UserID     *int64
	ChangeType *string
	StartDate  *string // YYYY-MM-DD
	EndDate    *string // YYYY-MM-DD
	Page       int
	PageSize   int
}
