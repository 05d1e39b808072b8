package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Store represents a physical pharmacy location. Batches, sales and
// reconciliations all belong to exactly one store.
type Store struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" binding:"required"`
	Address   *string   `json:"address,omitempty" db:"address"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Product is a catalog entry. Stock is never tracked on the product itself;
// quantities live on batches.
type Product struct {
	ID           int64           `json:"id" db:"id"`
	Name         string          `json:"name" db:"name" binding:"required"`
	GenericName  *string         `json:"generic_name,omitempty" db:"generic_name"`
	SKU          string          `json:"sku" db:"sku" binding:"required"`
	Barcode      *string         `json:"barcode,omitempty" db:"barcode"`
	NafdacNumber string          `json:"nafdac_number" db:"nafdac_number" binding:"required"`
	CostPrice    decimal.Decimal `json:"cost_price" db:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price" db:"selling_price"`
	Description  *string         `json:"description,omitempty" db:"description"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}
