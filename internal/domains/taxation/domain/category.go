package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CalculatorKind selects the strategy used to turn a rate into a tax amount.
type CalculatorKind string

const (
	CalculatorDefault CalculatorKind = "default"
)

// MaxRateScale is the number of decimal places a rate amount may carry;
// stored rates are numeric(12,6).
const MaxRateScale = 6

var maxRateAmount = decimal.New(1, 12-MaxRateScale)

var (
	ErrEmptyCategoryCode   = errors.New("tax category code must not be empty")
	ErrEmptyRateCode       = errors.New("tax rate code must not be empty")
	ErrDuplicateRateCode   = errors.New("tax rate code is already used in this category")
	ErrInvalidRateAmount   = errors.New("tax rate amount must not be negative")
	ErrRateTooPrecise      = errors.New("tax rate amount exceeds the supported precision")
	ErrUnknownCalculator   = errors.New("tax rate calculator is unknown")
	ErrNegativeTaxableBase = errors.New("taxable amount must not be negative")
)

// TaxRate is a single percentage tax. Amount is a fraction: 0.1 means 10%.
type TaxRate struct {
	Code            string
	Name            string
	Amount          decimal.Decimal
	IncludedInPrice bool
	// Zone optionally scopes the rate to a jurisdiction, e.g. "fr" or "ca-bc".
	Zone       string
	Calculator CalculatorKind
}

// NewTaxRate validates and constructs a rate.
func NewTaxRate(code, name string, amount decimal.Decimal, includedInPrice bool, zone string, calculator CalculatorKind) (TaxRate, error) {
	rate := TaxRate{
		Code:            strings.TrimSpace(code),
		Name:            strings.TrimSpace(name),
		Amount:          amount,
		IncludedInPrice: includedInPrice,
		Zone:            normalizeZone(zone),
		Calculator:      calculator,
	}
	if rate.Calculator == "" {
		rate.Calculator = CalculatorDefault
	}
	if err := rate.Validate(); err != nil {
		return TaxRate{}, err
	}
	return rate, nil
}

// Validate enforces the invariants a rate needs before it can be used for computation.
func (r TaxRate) Validate() error {
	if r.Code == "" {
		return ErrEmptyRateCode
	}
	if r.Amount.IsNegative() {
		return fmt.Errorf("%w: rate %s has amount %s", ErrInvalidRateAmount, r.Code, r.Amount.String())
	}
	if r.Amount.Exponent() < -MaxRateScale && !r.Amount.Equal(r.Amount.Round(MaxRateScale)) {
		return fmt.Errorf("%w: rate %s has amount %s, at most %d decimal places", ErrRateTooPrecise, r.Code, r.Amount.String(), MaxRateScale)
	}
	if r.Amount.GreaterThanOrEqual(maxRateAmount) {
		return fmt.Errorf("%w: rate %s has amount %s", ErrRateTooPrecise, r.Code, r.Amount.String())
	}
	if !isKnownCalculator(r.Calculator) {
		return fmt.Errorf("%w: %q", ErrUnknownCalculator, r.Calculator)
	}
	return nil
}

// AppliesIn reports whether the rate is applicable for the given jurisdiction.
// Unscoped rates apply everywhere, and an order without a zone does not filter.
// A country-level rate ("ca") applies to its regions ("ca-bc").
func (r TaxRate) AppliesIn(zone string) bool {
	rateZone := normalizeZone(r.Zone)
	zone = normalizeZone(zone)
	if rateZone == "" || zone == "" {
		return true
	}
	return zone == rateZone || strings.HasPrefix(zone, rateZone+"-")
}

// Label is the human readable description attached to adjustments.
func (r TaxRate) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Code
}

// TaxCategory groups the rates applicable to a taxable subject.
type TaxCategory struct {
	Code  string
	Name  string
	Rates []TaxRate
}

// NewTaxCategory validates and constructs a category with its rates.
func NewTaxCategory(code, name string, rates ...TaxRate) (*TaxCategory, error) {
	category := &TaxCategory{Code: strings.TrimSpace(code), Name: strings.TrimSpace(name)}
	if category.Code == "" {
		return nil, ErrEmptyCategoryCode
	}
	for _, rate := range rates {
		if err := category.AddRate(rate); err != nil {
			return nil, err
		}
	}
	return category, nil
}

// AddRate appends a rate, rejecting duplicate codes.
func (c *TaxCategory) AddRate(rate TaxRate) error {
	if err := rate.Validate(); err != nil {
		return err
	}
	for _, existing := range c.Rates {
		if existing.Code == rate.Code {
			return fmt.Errorf("%w: %s", ErrDuplicateRateCode, rate.Code)
		}
	}
	c.Rates = append(c.Rates, rate)
	return nil
}

// Validate enforces invariants on the aggregate.
func (c *TaxCategory) Validate() error {
	if c == nil || strings.TrimSpace(c.Code) == "" {
		return ErrEmptyCategoryCode
	}
	seen := make(map[string]struct{}, len(c.Rates))
	for _, rate := range c.Rates {
		if err := rate.Validate(); err != nil {
			return err
		}
		if _, ok := seen[rate.Code]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateRateCode, rate.Code)
		}
		seen[rate.Code] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (c *TaxCategory) Clone() *TaxCategory {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Rates = append([]TaxRate(nil), c.Rates...)
	return &clone
}

// Scope carries the context a resolver uses to filter rates.
type Scope struct {
	Zone string
}

func isKnownCalculator(kind CalculatorKind) bool {
	switch kind {
	case CalculatorDefault:
		return true
	default:
		return false
	}
}

func normalizeZone(zone string) string {
	return strings.ToLower(strings.TrimSpace(zone))
}
