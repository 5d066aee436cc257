package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/taxes"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
)

// ErrInvalidInput signals the request violated a domain invariant.
var ErrInvalidInput = errors.New("invalid order input")

// ErrConflict signals the order is in a state that forbids the change.
var ErrConflict = errors.New("order state conflict")

// ErrNotFound signals a missing item or unit inside an existing order.
var ErrNotFound = errors.New("order resource not found")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, domain.ErrOrderFinalized) || errors.Is(err, ports.ErrStaleOrder) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	if errors.Is(err, taxes.ErrInvalidInput) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, domain.ErrItemNotFound) || errors.Is(err, domain.ErrUnitNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, domain.ErrEmptyVariantCode) ||
		errors.Is(err, domain.ErrInvalidUnitPrice) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidAdjustmentType) ||
		errors.Is(err, domain.ErrNegativeTax) ||
		errors.Is(err, domain.ErrNegativeTaxableAdjustment) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
