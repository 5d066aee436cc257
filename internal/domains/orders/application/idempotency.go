package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	ordertypes "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/types"
)

type normalizedCreateOrderInput struct {
	Zone     string           `json:"zone"`
	Currency string           `json:"currency"`
	Items    []normalizedItem `json:"items"`
}

type normalizedItem struct {
	VariantCode     string `json:"variantCode"`
	VariantName     string `json:"variantName"`
	TaxCategoryCode string `json:"taxCategoryCode"`
	UnitPrice       int64  `json:"unitPrice"`
	Quantity        int    `json:"quantity"`
}

// FingerprintCreateOrder builds a deterministic hash of the create-order request payload (excluding the idempotency key).
func FingerprintCreateOrder(input ordertypes.CreateOrderInput) (string, error) {
	payload, err := json.Marshal(normalizeCreateOrderInput(input))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeCreateOrderInput(input ordertypes.CreateOrderInput) normalizedCreateOrderInput {
	items := make([]normalizedItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, normalizedItem{
			VariantCode:     strings.TrimSpace(item.VariantCode),
			VariantName:     item.VariantName,
			TaxCategoryCode: strings.TrimSpace(item.TaxCategoryCode),
			UnitPrice:       item.UnitPrice,
			Quantity:        item.Quantity,
		})
	}
	return normalizedCreateOrderInput{
		Zone:     strings.ToLower(strings.TrimSpace(input.Zone)),
		Currency: strings.ToUpper(strings.TrimSpace(input.Currency)),
		Items:    items,
	}
}
