package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrUnauthorized      = errors.New("unauthorized")       // 401
	ErrForbidden         = errors.New("forbidden")          // 403
	ErrNotFound          = errors.New("not found")          // 404
	ErrConflict          = errors.New("conflict")           // 409
	ErrInvalidState      = errors.New("invalid state")      // 409
	ErrInsufficientStock = errors.New("insufficient stock") // 422
	ErrUnavailable       = errors.New("unavailable")        // 503
)

// StockError names the product that cannot cover the requested quantity.
type StockError struct {
	ProductID uuid.UUID
	Title     string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", e.Title, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
