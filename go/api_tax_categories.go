package ordersserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	taxhttpmapper "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/adapters/http/mapper"
	taxports "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/ports"
)

// TaxCategoryAPI exposes tax category administration and the default category setting.
type TaxCategoryAPI struct {
	service taxports.Service
}

func NewTaxCategoryAPI(service taxports.Service) TaxCategoryAPI {
	return TaxCategoryAPI{service: service}
}

// Get /v1/tax-categories
func (api *TaxCategoryAPI) ListTaxCategories(c *gin.Context) {
	categories, err := api.service.ListCategories(c.Request.Context())
	if err != nil {
		respondTaxServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, taxhttpmapper.FromDomainCategories(categories))
}

// Get /v1/tax-categories/:code
func (api *TaxCategoryAPI) GetTaxCategory(c *gin.Context) {
	category, err := api.service.GetCategory(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondTaxServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, taxhttpmapper.FromDomainCategory(category))
}

// Put /v1/tax-categories/:code
// Creates or replaces a category with its rates
func (api *TaxCategoryAPI) SaveTaxCategory(c *gin.Context) {
	var payload taxhttpmapper.TaxCategory
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	saved, err := api.service.SaveCategory(c.Request.Context(), taxhttpmapper.ToSaveInput(c.Param("code"), payload))
	if err != nil {
		respondTaxServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, taxhttpmapper.FromDomainCategory(saved))
}

// Delete /v1/tax-categories/:code
func (api *TaxCategoryAPI) DeleteTaxCategory(c *gin.Context) {
	if err := api.service.DeleteCategory(c.Request.Context(), c.Param("code")); err != nil {
		respondTaxServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get /v1/settings/default-tax-category
func (api *TaxCategoryAPI) GetDefaultTaxCategory(c *gin.Context) {
	code, err := api.service.DefaultCategory(c.Request.Context())
	if err != nil {
		respondTaxServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, taxhttpmapper.DefaultCategory{Code: code})
}

// Put /v1/settings/default-tax-category
func (api *TaxCategoryAPI) SetDefaultTaxCategory(c *gin.Context) {
	var payload taxhttpmapper.DefaultCategory
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := api.service.SetDefaultCategory(c.Request.Context(), payload.Code); err != nil {
		respondTaxServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}
