package ordersserver

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/types"
	ordersports "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
)

// IdempotencyKeyHeader lets clients retry order creation safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderAPI wires HTTP transport with the orders service and workflows.
type OrderAPI struct {
	service   ordersports.Service
	workflows ordersports.WorkflowOrchestrator
}

// NewOrderAPI creates an OrderAPI. A nil orchestrator finalizes through the service.
func NewOrderAPI(service ordersports.Service, workflows ordersports.WorkflowOrchestrator) OrderAPI {
	return OrderAPI{service: service, workflows: workflows}
}

// Post /v1/orders
// Opens a cart, optionally with items
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload orderhttpmapper.CreateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	created, err := api.service.CreateOrder(c.Request.Context(), orderhttpmapper.ToCreateInput(payload, key))
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderhttpmapper.FromProjection(created))
}

// Get /v1/orders
func (api *OrderAPI) ListOrders(c *gin.Context) {
	orders, err := api.service.ListOrders(c.Request.Context())
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromProjectionList(orders))
}

// Get /v1/orders/:orderId
func (api *OrderAPI) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), ordertypes.OrderIdentifier{ID: id})
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromProjection(order))
}

// Delete /v1/orders/:orderId
func (api *OrderAPI) DeleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	if err := api.service.DeleteOrder(c.Request.Context(), ordertypes.OrderIdentifier{ID: id}); err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /v1/orders/:orderId/items
// Adds an item and recalculates taxes
func (api *OrderAPI) AddItem(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload orderhttpmapper.ItemRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	api.respondOrder(c, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		return api.service.AddItem(ctx, orderhttpmapper.ToAddItemInput(id, payload))
	})
}

// Put /v1/orders/:orderId/items/:itemId
// Changes the quantity of an item
func (api *OrderAPI) UpdateItemQuantity(c *gin.Context) {
	orderID, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}
	var payload orderhttpmapper.QuantityRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	api.respondOrder(c, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		return api.service.UpdateItemQuantity(ctx, ordertypes.UpdateItemQuantityInput{OrderID: orderID, ItemID: itemID, Quantity: payload.Quantity})
	})
}

// Delete /v1/orders/:orderId/items/:itemId
func (api *OrderAPI) RemoveItem(c *gin.Context) {
	orderID, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}
	api.respondOrder(c, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		return api.service.RemoveItem(ctx, ordertypes.ItemIdentifier{OrderID: orderID, ItemID: itemID})
	})
}

// Put /v1/orders/:orderId/delivery
// Sets the delivery charge; without an amount the delivery is quoted
func (api *OrderAPI) SetDelivery(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload orderhttpmapper.DeliveryRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	api.respondOrder(c, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		return api.service.SetDelivery(ctx, ordertypes.SetDeliveryInput{OrderID: id, Amount: payload.Amount, Label: payload.Label})
	})
}

// Post /v1/orders/:orderId/adjustments
func (api *OrderAPI) AddAdjustment(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload orderhttpmapper.AdjustmentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	api.respondOrder(c, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		return api.service.AddAdjustment(ctx, ordertypes.AddAdjustmentInput{
			OrderID: id,
			Type:    payload.Type,
			Amount:  payload.Amount,
			Neutral: payload.Neutral,
			Label:   payload.Label,
		})
	})
}

// Delete /v1/orders/:orderId/adjustments/:type
func (api *OrderAPI) RemoveAdjustments(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	adjustmentType := c.Param("type")
	api.respondOrder(c, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		return api.service.RemoveAdjustments(ctx, ordertypes.RemoveAdjustmentsInput{OrderID: id, Type: adjustmentType})
	})
}

// Post /v1/orders/:orderId/recalculate
func (api *OrderAPI) RecalculateTaxes(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	api.respondOrder(c, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		return api.service.RecalculateTaxes(ctx, ordertypes.OrderIdentifier{ID: id})
	})
}

// Post /v1/orders/:orderId/finalize
// Settles taxes and freezes the order
func (api *OrderAPI) FinalizeOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	api.respondOrder(c, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		input := ordertypes.OrderIdentifier{ID: id}
		if api.workflows != nil {
			return api.workflows.FinalizeOrder(ctx, input)
		}
		return api.service.FinalizeOrder(ctx, input)
	})
}

func (api *OrderAPI) respondOrder(c *gin.Context, call func(context.Context) (*ordertypes.OrderProjection, error)) {
	order, err := call(c.Request.Context())
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromProjection(order))
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	value := c.Param(name)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}
