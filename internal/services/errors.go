package services

import "errors"

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientStock is returned when available stock cannot cover a
	// requested quantity and the caller demanded full coverage.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInsufficientPayment is returned when the amount paid does not cover
	// a sale total.
	ErrInsufficientPayment = errors.New("insufficient payment")

	// ErrInvalidState is returned when an operation targets a record in a
	// state that does not permit it, such as releasing a confirmed
	// reservation or completing a finished reconciliation twice.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrInvalidQuantity is returned for zero or negative quantities, or for
	// a mutation that would drive a batch below zero.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrValidation is returned for malformed or incomplete input.
	ErrValidation = errors.New("validation failed")
)
