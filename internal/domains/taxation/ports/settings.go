package ports

import "context"

// SettingDefaultTaxCategory names the category used to tax order-level charges such as delivery.
const SettingDefaultTaxCategory = "default_tax_category"

// SettingsStore is a small key/value store for process-wide configuration.
type SettingsStore interface {
	// Get returns the value and whether the key is set.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
