package domain

import (
	"strings"

	"github.com/google/uuid"
)

// AdjustmentType is the closed vocabulary of monetary deltas an order can carry.
type AdjustmentType string

const (
	AdjustmentTax               AdjustmentType = "tax"
	AdjustmentDelivery          AdjustmentType = "delivery"
	AdjustmentDeliveryPromotion AdjustmentType = "delivery_promotion"
	AdjustmentOrderPromotion    AdjustmentType = "order_promotion"
	AdjustmentReusablePackaging AdjustmentType = "reusable_packaging"
	AdjustmentTip               AdjustmentType = "tip"
)

// Valid reports whether the type belongs to the known vocabulary.
func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentTax, AdjustmentDelivery, AdjustmentDeliveryPromotion,
		AdjustmentOrderPromotion, AdjustmentReusablePackaging, AdjustmentTip:
		return true
	default:
		return false
	}
}

// Taxable reports whether an order-level adjustment of this type is subject to tax.
func (t AdjustmentType) Taxable() bool {
	switch t {
	case AdjustmentDelivery, AdjustmentReusablePackaging:
		return true
	default:
		return false
	}
}

// ParseAdjustmentType normalizes raw input into a known type.
func ParseAdjustmentType(raw string) (AdjustmentType, error) {
	t := AdjustmentType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", ErrInvalidAdjustmentType
	}
	return t, nil
}

// OwnerKind tells whether an adjustment hangs off the order or one of its units.
type OwnerKind string

const (
	OwnerOrder OwnerKind = "order"
	OwnerUnit  OwnerKind = "unit"
)

// Owner identifies the record an adjustment belongs to. UnitID is zero for order-level adjustments.
type Owner struct {
	Kind   OwnerKind
	UnitID int64
}

func OrderOwner() Owner {
	return Owner{Kind: OwnerOrder}
}

func UnitOwner(unitID int64) Owner {
	return Owner{Kind: OwnerUnit, UnitID: unitID}
}

// Adjustment is a typed monetary delta in minor currency units.
type Adjustment struct {
	ID     string
	Type   AdjustmentType
	Amount int64
	// Neutral adjustments are already reflected in the price and do not change totals.
	Neutral bool
	Label   string
	// OriginCode references what produced the adjustment, e.g. a tax rate code.
	OriginCode string
	// Source is the provenance tag of the process that created the adjustment.
	Source string
	Owner  Owner
}

// OnOrder reports whether the adjustment is attached directly to the order.
func (a Adjustment) OnOrder() bool {
	return a.Owner.Kind == OwnerOrder
}

// AdjustmentFactory builds adjustments with fresh identifiers.
type AdjustmentFactory struct {
	newID func() string
}

// NewAdjustmentFactory returns a factory issuing random UUIDs.
func NewAdjustmentFactory() AdjustmentFactory {
	return AdjustmentFactory{newID: uuid.NewString}
}

// Create returns an unattached adjustment; the caller sets the owner.
func (f AdjustmentFactory) Create(t AdjustmentType, amount int64, neutral bool, label string) Adjustment {
	newID := f.newID
	if newID == nil {
		newID = uuid.NewString
	}
	return Adjustment{
		ID:      newID(),
		Type:    t,
		Amount:  amount,
		Neutral: neutral,
		Label:   label,
		Owner:   OrderOwner(),
	}
}
