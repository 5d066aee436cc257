package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/domain"
)

// ErrInvalidInput signals the request violated a domain invariant.
var ErrInvalidInput = errors.New("invalid tax configuration input")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyCategoryCode) ||
		errors.Is(err, domain.ErrEmptyRateCode) ||
		errors.Is(err, domain.ErrDuplicateRateCode) ||
		errors.Is(err, domain.ErrInvalidRateAmount) ||
		errors.Is(err, domain.ErrRateTooPrecise) ||
		errors.Is(err, domain.ErrUnknownCalculator) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
