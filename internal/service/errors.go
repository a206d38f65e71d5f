package service

import (
	"errors"
	"fmt"

	"go-stock-ledger/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrNoConversionPath      = errors.New("no conversion path")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrDuplicateInventory    = errors.New("inventory already exists")
	ErrInventoryNotFound     = errors.New("inventory not found")
	ErrConversionInvariant   = errors.New("conversion produced an impossible result")
	ErrUnitNotInScope        = errors.New("unit does not belong to this product")
	ErrPurchaseNotFound      = errors.New("purchase not found")
	ErrSaleNotFound          = errors.New("sale not found")
	ErrInvalidConversionRate = errors.New("conversion rate must be a positive finite number")
	ErrValidation            = errors.New("validation failed")
)

type NoConversionPathError struct {
	ProductID  uuid.UUID
	UserID     uuid.UUID
	FromUnitID uuid.UUID
	ToUnitID   uuid.UUID
}

func (e *NoConversionPathError) Error() string {
	return fmt.Sprintf("no conversion path from unit %s to unit %s for product %s", e.FromUnitID, e.ToUnitID, e.ProductID)
}

func (e *NoConversionPathError) Is(target error) bool { return target == ErrNoConversionPath }

type InsufficientStockError struct {
	Available float64
	Requested float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %g, available %g", e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type InvalidQuantityError struct {
	Field string
	Value float64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Value)
}

func (e *InvalidQuantityError) Is(target error) bool { return target == ErrInvalidQuantity }

type DuplicateInventoryError struct {
	ProductID uuid.UUID
	UserID    uuid.UUID
}

func (e *DuplicateInventoryError) Error() string {
	return fmt.Sprintf("inventory for product %s already exists", e.ProductID)
}

func (e *DuplicateInventoryError) Is(target error) bool { return target == ErrDuplicateInventory }

type InventoryNotFoundError struct {
	ProductID uuid.UUID
	UserID    uuid.UUID
}

func (e *InventoryNotFoundError) Error() string {
	return fmt.Sprintf("inventory for product %s not found", e.ProductID)
}

func (e *InventoryNotFoundError) Is(target error) bool { return target == ErrInventoryNotFound }

// ConversionInvariantError means a conversion turned a non-negative quantity
// into a negative one, which points at a corrupted edge.
type ConversionInvariantError struct {
	FromUnitID uuid.UUID
	ToUnitID   uuid.UUID
	Result     float64
}

func (e *ConversionInvariantError) Error() string {
	return fmt.Sprintf("conversion from %s to %s produced %g", e.FromUnitID, e.ToUnitID, e.Result)
}

func (e *ConversionInvariantError) Is(target error) bool { return target == ErrConversionInvariant }

// validate runs struct validation and wraps the first failure in ErrValidation.
func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return fmt.Errorf("%w: field '%s' failed on tag '%s'", ErrValidation, first.FailedField, first.Tag)
	}
	return nil
}
