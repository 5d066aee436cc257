package types

// CreateOrderInput opens a new cart.
type CreateOrderInput struct {
	Zone     string
	Currency string
	Items    []AddItemInput
	// IdempotencyKey makes retried creations return the first result.
	IdempotencyKey string
}

// AddItemInput appends an item to an order.
type AddItemInput struct {
	OrderID         int64
	VariantCode     string
	VariantName     string
	TaxCategoryCode string
	UnitPrice       int64
	Quantity        int
}

// UpdateItemQuantityInput changes the number of units of an item.
type UpdateItemQuantityInput struct {
	OrderID  int64
	ItemID   int64
	Quantity int
}

// ItemIdentifier targets a single item of an order.
type ItemIdentifier struct {
	OrderID int64
	ItemID  int64
}

// OrderIdentifier targets an order.
type OrderIdentifier struct {
	ID int64
}

// SetDeliveryInput replaces the delivery charge. A nil Amount asks the
// delivery pricer for a quote.
type SetDeliveryInput struct {
	OrderID int64
	Amount  *int64
	Label   string
}

// AddAdjustmentInput attaches a non-tax adjustment to the order.
type AddAdjustmentInput struct {
	OrderID int64
	Type    string
	Amount  int64
	Neutral bool
	Label   string
}

// RemoveAdjustmentsInput removes every direct order adjustment of a type.
type RemoveAdjustmentsInput struct {
	OrderID int64
	Type    string
}
