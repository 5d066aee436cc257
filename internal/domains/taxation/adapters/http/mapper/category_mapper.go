package mapper

import (
	taxdomain "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/domain"
	taxports "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/ports"
)

// TaxRate is the HTTP representation of a rate. Amount is a decimal string such as "0.2".
type TaxRate struct {
	Code            string `json:"code"`
	Name            string `json:"name,omitempty"`
	Amount          string `json:"amount"`
	IncludedInPrice bool   `json:"includedInPrice"`
	Zone            string `json:"zone,omitempty"`
	Calculator      string `json:"calculator,omitempty"`
}

// TaxCategory is the HTTP representation of a category and its rates.
type TaxCategory struct {
	Code  string    `json:"code"`
	Name  string    `json:"name,omitempty"`
	Rates []TaxRate `json:"rates"`
}

// DefaultCategory carries the default tax category setting.
type DefaultCategory struct {
	Code string `json:"code"`
}

// ToSaveInput converts a payload into the service input. The path code wins over the body.
func ToSaveInput(code string, payload TaxCategory) taxports.SaveCategoryInput {
	if code == "" {
		code = payload.Code
	}
	rates := make([]taxports.RateInput, 0, len(payload.Rates))
	for _, r := range payload.Rates {
		rates = append(rates, taxports.RateInput{
			Code:            r.Code,
			Name:            r.Name,
			Amount:          r.Amount,
			IncludedInPrice: r.IncludedInPrice,
			Zone:            r.Zone,
			Calculator:      r.Calculator,
		})
	}
	return taxports.SaveCategoryInput{Code: code, Name: payload.Name, Rates: rates}
}

// FromDomainCategory converts a domain category into its transport shape.
func FromDomainCategory(category *taxdomain.TaxCategory) TaxCategory {
	if category == nil {
		return TaxCategory{}
	}
	rates := make([]TaxRate, 0, len(category.Rates))
	for _, r := range category.Rates {
		rates = append(rates, TaxRate{
			Code:            r.Code,
			Name:            r.Name,
			Amount:          r.Amount.String(),
			IncludedInPrice: r.IncludedInPrice,
			Zone:            r.Zone,
			Calculator:      string(r.Calculator),
		})
	}
	return TaxCategory{Code: category.Code, Name: category.Name, Rates: rates}
}

func FromDomainCategories(categories []*taxdomain.TaxCategory) []TaxCategory {
	out := make([]TaxCategory, 0, len(categories))
	for _, c := range categories {
		out = append(out, FromDomainCategory(c))
	}
	return out
}
