package mapper

import (
	"time"

	ordertypes "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/domain"
)

// ItemRequest is the inbound shape of a new order item.
type ItemRequest struct {
	VariantCode     string `json:"variantCode"`
	VariantName     string `json:"variantName,omitempty"`
	TaxCategoryCode string `json:"taxCategoryCode,omitempty"`
	UnitPrice       int64  `json:"unitPrice"`
	Quantity        int    `json:"quantity"`
}

// CreateOrderRequest opens a cart.
type CreateOrderRequest struct {
	Zone     string        `json:"zone,omitempty"`
	Currency string        `json:"currency,omitempty"`
	Items    []ItemRequest `json:"items,omitempty"`
}

type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

// DeliveryRequest sets the delivery charge. Omitting amount requests a quote.
type DeliveryRequest struct {
	Amount *int64 `json:"amount,omitempty"`
	Label  string `json:"label,omitempty"`
}

type AdjustmentRequest struct {
	Type    string `json:"type"`
	Amount  int64  `json:"amount"`
	Neutral bool   `json:"neutral,omitempty"`
	Label   string `json:"label,omitempty"`
}

// Adjustment is the HTTP representation of a monetary adjustment.
type Adjustment struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Amount     int64  `json:"amount"`
	Neutral    bool   `json:"neutral"`
	Label      string `json:"label,omitempty"`
	OriginCode string `json:"originCode,omitempty"`
	Source     string `json:"source,omitempty"`
}

type Variant struct {
	Code            string `json:"code"`
	Name            string `json:"name,omitempty"`
	TaxCategoryCode string `json:"taxCategoryCode,omitempty"`
}

type Unit struct {
	ID          int64        `json:"id"`
	Total       int64        `json:"total"`
	Adjustments []Adjustment `json:"adjustments"`
}

type Item struct {
	ID        int64   `json:"id"`
	Variant   Variant `json:"variant"`
	UnitPrice int64   `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	Total     int64   `json:"total"`
	Units     []Unit  `json:"units"`
}

// Order is the HTTP representation of an order with its derived totals.
type Order struct {
	ID               int64        `json:"id"`
	Zone             string       `json:"zone,omitempty"`
	Currency         string       `json:"currency,omitempty"`
	State            string       `json:"state"`
	Items            []Item       `json:"items"`
	Adjustments      []Adjustment `json:"adjustments"`
	ItemsTotal       int64        `json:"itemsTotal"`
	AdjustmentsTotal int64        `json:"adjustmentsTotal"`
	TaxTotal         int64        `json:"taxTotal"`
	Total            int64        `json:"total"`
	CreatedAt        time.Time    `json:"createdAt,omitempty"`
	UpdatedAt        time.Time    `json:"updatedAt,omitempty"`
}

// ToCreateInput maps the create payload into the service input.
func ToCreateInput(req CreateOrderRequest, idempotencyKey string) ordertypes.CreateOrderInput {
	items := make([]ordertypes.AddItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, ToAddItemInput(0, item))
	}
	return ordertypes.CreateOrderInput{
		Zone:           req.Zone,
		Currency:       req.Currency,
		Items:          items,
		IdempotencyKey: idempotencyKey,
	}
}

func ToAddItemInput(orderID int64, req ItemRequest) ordertypes.AddItemInput {
	return ordertypes.AddItemInput{
		OrderID:         orderID,
		VariantCode:     req.VariantCode,
		VariantName:     req.VariantName,
		TaxCategoryCode: req.TaxCategoryCode,
		UnitPrice:       req.UnitPrice,
		Quantity:        req.Quantity,
	}
}

// FromProjection renders an order and its metadata.
func FromProjection(proj *ordertypes.OrderProjection) Order {
	if proj == nil || proj.Entity == nil {
		return Order{}
	}
	out := FromDomainOrder(proj.Entity)
	out.CreatedAt = proj.Metadata.CreatedAt
	out.UpdatedAt = proj.Metadata.UpdatedAt
	return out
}

func FromProjectionList(list []*ordertypes.OrderProjection) []Order {
	out := make([]Order, 0, len(list))
	for _, proj := range list {
		if proj == nil {
			continue
		}
		out = append(out, FromProjection(proj))
	}
	return out
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	items := make([]Item, 0, len(order.Items))
	for _, item := range order.Items {
		domainUnits := order.UnitsOf(item.ID)
		units := make([]Unit, 0, len(domainUnits))
		for _, unit := range domainUnits {
			units = append(units, Unit{
				ID:          unit.ID,
				Total:       order.UnitTotal(unit),
				Adjustments: fromAdjustments(order.UnitAdjustments(unit.ID)),
			})
		}
		items = append(items, Item{
			ID: item.ID,
			Variant: Variant{
				Code:            item.Variant.Code,
				Name:            item.Variant.Name,
				TaxCategoryCode: item.Variant.TaxCategoryCode,
			},
			UnitPrice: item.UnitPrice,
			Quantity:  len(domainUnits),
			Total:     order.ItemTotal(item.ID),
			Units:     units,
		})
	}
	return Order{
		ID:               order.ID,
		Zone:             order.Zone,
		Currency:         order.Currency,
		State:            string(order.State),
		Items:            items,
		Adjustments:      fromAdjustments(order.AdjustmentsOf("")),
		ItemsTotal:       order.ItemsTotal(),
		AdjustmentsTotal: order.AdjustmentsTotal(),
		TaxTotal:         order.TaxTotal(),
		Total:            order.Total(),
	}
}

func fromAdjustments(adjustments []domain.Adjustment) []Adjustment {
	out := make([]Adjustment, 0, len(adjustments))
	for _, adj := range adjustments {
		out = append(out, Adjustment{
			ID:         adj.ID,
			Type:       string(adj.Type),
			Amount:     adj.Amount,
			Neutral:    adj.Neutral,
			Label:      adj.Label,
			OriginCode: adj.OriginCode,
			Source:     adj.Source,
		})
	}
	return out
}
