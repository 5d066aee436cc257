package domain

import (
	"errors"
	"fmt"
	"strings"
)

// State represents the lifecycle of an order.
type State string

const (
	StateCart      State = "cart"
	StateFinalized State = "finalized"
)

var (
	ErrEmptyVariantCode          = errors.New("product variant code is required")
	ErrInvalidUnitPrice          = errors.New("unit price must be greater or equal to zero")
	ErrInvalidQuantity           = errors.New("quantity must be at least 1")
	ErrItemNotFound              = errors.New("order item not found")
	ErrUnitNotFound              = errors.New("order item unit not found")
	ErrInvalidAdjustmentType     = errors.New("adjustment type is unknown")
	ErrNegativeTax               = errors.New("tax adjustment amount must not be negative")
	ErrNegativeTaxableAdjustment = errors.New("taxable adjustment amount must not be negative")
	ErrOrderFinalized            = errors.New("order is finalized and can no longer change")
)

// ProductVariant is the taxable subject an item refers to. An empty
// TaxCategoryCode means the variant carries no tax.
type ProductVariant struct {
	Code            string
	Name            string
	TaxCategoryCode string
}

// OrderItem is a line of the order. Its quantity is the number of units it owns.
type OrderItem struct {
	ID        int64
	Variant   ProductVariant
	UnitPrice int64
}

// OrderItemUnit is a single unit of an item; item level adjustments attach here.
type OrderItemUnit struct {
	ID     int64
	ItemID int64
}

// Order is the aggregate root. Items, units and adjustments are flat records
// referencing their owners by identifier.
type Order struct {
	ID int64
	// Version is the stored revision the order was loaded at; zero before the
	// first save. Repositories reject saves from a stale version.
	Version     int64
	Zone        string
	Currency    string
	State       State
	Items       []OrderItem
	Units       []OrderItemUnit
	Adjustments []Adjustment
}

// NewOrder creates an empty cart.
func NewOrder(id int64, zone, currency string) *Order {
	return &Order{
		ID:       id,
		Zone:     strings.ToLower(strings.TrimSpace(zone)),
		Currency: strings.ToUpper(strings.TrimSpace(currency)),
		State:    StateCart,
	}
}

// Finalized reports whether the order is read-only.
func (o *Order) Finalized() bool {
	return o.State == StateFinalized
}

// AddItem appends an item with quantity units and returns its identifier.
func (o *Order) AddItem(variant ProductVariant, unitPrice int64, quantity int) (int64, error) {
	if o.Finalized() {
		return 0, ErrOrderFinalized
	}
	variant.Code = strings.TrimSpace(variant.Code)
	variant.TaxCategoryCode = strings.TrimSpace(variant.TaxCategoryCode)
	if variant.Code == "" {
		return 0, ErrEmptyVariantCode
	}
	if unitPrice < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidUnitPrice, unitPrice)
	}
	if quantity < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	item := OrderItem{ID: o.nextItemID(), Variant: variant, UnitPrice: unitPrice}
	o.Items = append(o.Items, item)
	o.addUnits(item.ID, quantity)
	return item.ID, nil
}

// SetItemQuantity grows or shrinks the units of an item. Removed units drop their adjustments.
func (o *Order) SetItemQuantity(itemID int64, quantity int) error {
	if o.Finalized() {
		return ErrOrderFinalized
	}
	if _, ok := o.Item(itemID); !ok {
		return fmt.Errorf("%w: %d", ErrItemNotFound, itemID)
	}
	if quantity < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	current := o.UnitsOf(itemID)
	switch {
	case quantity > len(current):
		o.addUnits(itemID, quantity-len(current))
	case quantity < len(current):
		drop := make(map[int64]struct{}, len(current)-quantity)
		for _, unit := range current[quantity:] {
			drop[unit.ID] = struct{}{}
		}
		o.dropUnits(drop)
	}
	return nil
}

// RemoveItem deletes an item together with its units and their adjustments.
func (o *Order) RemoveItem(itemID int64) error {
	if o.Finalized() {
		return ErrOrderFinalized
	}
	idx := -1
	for i, item := range o.Items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrItemNotFound, itemID)
	}
	drop := map[int64]struct{}{}
	for _, unit := range o.UnitsOf(itemID) {
		drop[unit.ID] = struct{}{}
	}
	o.dropUnits(drop)
	o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
	return nil
}

// AddAdjustment attaches an adjustment directly to the order.
func (o *Order) AddAdjustment(adj Adjustment) error {
	adj.Owner = OrderOwner()
	return o.attach(adj)
}

// AddUnitAdjustment attaches an adjustment to one unit.
func (o *Order) AddUnitAdjustment(unitID int64, adj Adjustment) error {
	adj.Owner = UnitOwner(unitID)
	return o.attach(adj)
}

func (o *Order) attach(adj Adjustment) error {
	if o.Finalized() {
		return ErrOrderFinalized
	}
	if err := o.checkAdjustment(adj); err != nil {
		return err
	}
	o.Adjustments = append(o.Adjustments, adj)
	return nil
}

// RemoveAdjustments drops the direct order adjustments of the given type and
// returns how many were removed.
func (o *Order) RemoveAdjustments(t AdjustmentType) (int, error) {
	if o.Finalized() {
		return 0, ErrOrderFinalized
	}
	removed := 0
	kept := o.Adjustments[:0]
	for _, adj := range o.Adjustments {
		if adj.OnOrder() && adj.Type == t {
			removed++
			continue
		}
		kept = append(kept, adj)
	}
	o.Adjustments = kept
	return removed, nil
}

// ReplaceAdjustments removes every adjustment matching remove and attaches add.
// All additions are checked first, so on error the order is left untouched.
func (o *Order) ReplaceAdjustments(remove func(Adjustment) bool, add []Adjustment) error {
	if o.Finalized() {
		return ErrOrderFinalized
	}
	for _, adj := range add {
		if err := o.checkAdjustment(adj); err != nil {
			return err
		}
	}
	next := make([]Adjustment, 0, len(o.Adjustments)+len(add))
	for _, adj := range o.Adjustments {
		if remove != nil && remove(adj) {
			continue
		}
		next = append(next, adj)
	}
	o.Adjustments = append(next, add...)
	return nil
}

// Finalize makes the order read-only.
func (o *Order) Finalize() error {
	if o.Finalized() {
		return ErrOrderFinalized
	}
	o.State = StateFinalized
	return nil
}

// Item returns the item with the given identifier.
func (o *Order) Item(itemID int64) (OrderItem, bool) {
	for _, item := range o.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return OrderItem{}, false
}

// UnitsOf returns the units owned by an item in creation order.
func (o *Order) UnitsOf(itemID int64) []OrderItemUnit {
	var units []OrderItemUnit
	for _, unit := range o.Units {
		if unit.ItemID == itemID {
			units = append(units, unit)
		}
	}
	return units
}

// Quantity is the number of units of an item.
func (o *Order) Quantity(itemID int64) int {
	return len(o.UnitsOf(itemID))
}

// AdjustmentsOf returns the adjustments attached directly to the order. An
// empty type returns all of them.
func (o *Order) AdjustmentsOf(t AdjustmentType) []Adjustment {
	var out []Adjustment
	for _, adj := range o.Adjustments {
		if adj.OnOrder() && (t == "" || adj.Type == t) {
			out = append(out, adj)
		}
	}
	return out
}

// AdjustmentsRecursively returns order level and unit level adjustments of a type.
func (o *Order) AdjustmentsRecursively(t AdjustmentType) []Adjustment {
	var out []Adjustment
	for _, adj := range o.Adjustments {
		if t == "" || adj.Type == t {
			out = append(out, adj)
		}
	}
	return out
}

// UnitAdjustments returns the adjustments of one unit.
func (o *Order) UnitAdjustments(unitID int64) []Adjustment {
	var out []Adjustment
	for _, adj := range o.Adjustments {
		if adj.Owner.Kind == OwnerUnit && adj.Owner.UnitID == unitID {
			out = append(out, adj)
		}
	}
	return out
}

// UnitTotal is the unit price plus the non-neutral adjustments of that unit.
func (o *Order) UnitTotal(unit OrderItemUnit) int64 {
	item, ok := o.Item(unit.ItemID)
	if !ok {
		return 0
	}
	total := item.UnitPrice
	for _, adj := range o.UnitAdjustments(unit.ID) {
		if !adj.Neutral {
			total += adj.Amount
		}
	}
	return total
}

// ItemTotal sums the totals of the item's units.
func (o *Order) ItemTotal(itemID int64) int64 {
	var total int64
	for _, unit := range o.UnitsOf(itemID) {
		total += o.UnitTotal(unit)
	}
	return total
}

// ItemsTotal sums every item total.
func (o *Order) ItemsTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += o.ItemTotal(item.ID)
	}
	return total
}

// AdjustmentsTotal sums the non-neutral adjustments attached directly to the order.
func (o *Order) AdjustmentsTotal() int64 {
	var total int64
	for _, adj := range o.AdjustmentsOf("") {
		if !adj.Neutral {
			total += adj.Amount
		}
	}
	return total
}

// Total is what the customer pays.
func (o *Order) Total() int64 {
	return o.ItemsTotal() + o.AdjustmentsTotal()
}

// TaxTotal sums every tax adjustment at any level, neutral or not.
func (o *Order) TaxTotal() int64 {
	var total int64
	for _, adj := range o.AdjustmentsRecursively(AdjustmentTax) {
		total += adj.Amount
	}
	return total
}

// Validate checks the aggregate is consistent enough to be taxed and persisted.
func (o *Order) Validate() error {
	items := make(map[int64]struct{}, len(o.Items))
	for _, item := range o.Items {
		if strings.TrimSpace(item.Variant.Code) == "" {
			return fmt.Errorf("item %d: %w", item.ID, ErrEmptyVariantCode)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("item %d: %w: %d", item.ID, ErrInvalidUnitPrice, item.UnitPrice)
		}
		items[item.ID] = struct{}{}
	}
	counts := make(map[int64]int, len(o.Items))
	for _, unit := range o.Units {
		if _, ok := items[unit.ItemID]; !ok {
			return fmt.Errorf("unit %d: %w: %d", unit.ID, ErrItemNotFound, unit.ItemID)
		}
		counts[unit.ItemID]++
	}
	for _, item := range o.Items {
		if counts[item.ID] < 1 {
			return fmt.Errorf("item %d: %w: 0", item.ID, ErrInvalidQuantity)
		}
	}
	for _, adj := range o.Adjustments {
		if err := o.checkAdjustment(adj); err != nil {
			return err
		}
	}
	return nil
}

func (o *Order) checkAdjustment(adj Adjustment) error {
	if !adj.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAdjustmentType, adj.Type)
	}
	if adj.Type == AdjustmentTax && adj.Amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeTax, adj.Amount)
	}
	switch adj.Owner.Kind {
	case OwnerOrder:
		if adj.Type.Taxable() && adj.Amount < 0 {
			return fmt.Errorf("%w: %s %d", ErrNegativeTaxableAdjustment, adj.Type, adj.Amount)
		}
	case OwnerUnit:
		if !o.hasUnit(adj.Owner.UnitID) {
			return fmt.Errorf("%w: %d", ErrUnitNotFound, adj.Owner.UnitID)
		}
	default:
		return fmt.Errorf("adjustment %s has unknown owner kind %q", adj.ID, adj.Owner.Kind)
	}
	return nil
}

// Clone returns a deep copy of the aggregate.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]OrderItem(nil), o.Items...)
	clone.Units = append([]OrderItemUnit(nil), o.Units...)
	clone.Adjustments = append([]Adjustment(nil), o.Adjustments...)
	return &clone
}

func (o *Order) hasUnit(unitID int64) bool {
	for _, unit := range o.Units {
		if unit.ID == unitID {
			return true
		}
	}
	return false
}

func (o *Order) addUnits(itemID int64, n int) {
	next := o.nextUnitID()
	for i := 0; i < n; i++ {
		o.Units = append(o.Units, OrderItemUnit{ID: next, ItemID: itemID})
		next++
	}
}

func (o *Order) dropUnits(drop map[int64]struct{}) {
	units := o.Units[:0]
	for _, unit := range o.Units {
		if _, ok := drop[unit.ID]; !ok {
			units = append(units, unit)
		}
	}
	o.Units = units
	adjustments := o.Adjustments[:0]
	for _, adj := range o.Adjustments {
		if adj.Owner.Kind == OwnerUnit {
			if _, ok := drop[adj.Owner.UnitID]; ok {
				continue
			}
		}
		adjustments = append(adjustments, adj)
	}
	o.Adjustments = adjustments
}

func (o *Order) nextItemID() int64 {
	var max int64
	for _, item := range o.Items {
		if item.ID > max {
			max = item.ID
		}
	}
	return max + 1
}

func (o *Order) nextUnitID() int64 {
	var max int64
	for _, unit := range o.Units {
		if unit.ID > max {
			max = unit.ID
		}
	}
	return max + 1
}
