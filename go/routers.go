// Package ordersserver is the gin HTTP transport of the order taxes API.
package ordersserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers of every API.
type ApiHandleFunctions struct {
	OrderAPI       OrderAPI
	TaxCategoryAPI TaxCategoryAPI
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		router.Handle(route.Method, route.Pattern, route.HandlerFunc)
	}
	return router
}

// DefaultHandleFunc answers routes without a handler.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{"CreateOrder", http.MethodPost, "/v1/orders", handleFunctions.OrderAPI.CreateOrder},
		{"ListOrders", http.MethodGet, "/v1/orders", handleFunctions.OrderAPI.ListOrders},
		{"GetOrder", http.MethodGet, "/v1/orders/:orderId", handleFunctions.OrderAPI.GetOrder},
		{"DeleteOrder", http.MethodDelete, "/v1/orders/:orderId", handleFunctions.OrderAPI.DeleteOrder},
		{"AddItem", http.MethodPost, "/v1/orders/:orderId/items", handleFunctions.OrderAPI.AddItem},
		{"UpdateItemQuantity", http.MethodPut, "/v1/orders/:orderId/items/:itemId", handleFunctions.OrderAPI.UpdateItemQuantity},
		{"RemoveItem", http.MethodDelete, "/v1/orders/:orderId/items/:itemId", handleFunctions.OrderAPI.RemoveItem},
		{"SetDelivery", http.MethodPut, "/v1/orders/:orderId/delivery", handleFunctions.OrderAPI.SetDelivery},
		{"AddAdjustment", http.MethodPost, "/v1/orders/:orderId/adjustments", handleFunctions.OrderAPI.AddAdjustment},
		{"RemoveAdjustments", http.MethodDelete, "/v1/orders/:orderId/adjustments/:type", handleFunctions.OrderAPI.RemoveAdjustments},
		{"RecalculateTaxes", http.MethodPost, "/v1/orders/:orderId/recalculate", handleFunctions.OrderAPI.RecalculateTaxes},
		{"FinalizeOrder", http.MethodPost, "/v1/orders/:orderId/finalize", handleFunctions.OrderAPI.FinalizeOrder},
		{"ListTaxCategories", http.MethodGet, "/v1/tax-categories", handleFunctions.TaxCategoryAPI.ListTaxCategories},
		{"GetTaxCategory", http.MethodGet, "/v1/tax-categories/:code", handleFunctions.TaxCategoryAPI.GetTaxCategory},
		{"SaveTaxCategory", http.MethodPut, "/v1/tax-categories/:code", handleFunctions.TaxCategoryAPI.SaveTaxCategory},
		{"DeleteTaxCategory", http.MethodDelete, "/v1/tax-categories/:code", handleFunctions.TaxCategoryAPI.DeleteTaxCategory},
		{"GetDefaultTaxCategory", http.MethodGet, "/v1/settings/default-tax-category", handleFunctions.TaxCategoryAPI.GetDefaultTaxCategory},
		{"SetDefaultTaxCategory", http.MethodPut, "/v1/settings/default-tax-category", handleFunctions.TaxCategoryAPI.SetDefaultTaxCategory},
	}
}
