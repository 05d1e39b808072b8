package models

import "time"

// User identifies who performed an operation. Every ledger mutation is
// attributed to a user in the audit trail.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"` // 'admin', 'manager', 'cashier'
	StoreID      *int64    `json:"store_id,omitempty" db:"store_id"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
