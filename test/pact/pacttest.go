//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "order-taxes-api"
	ConsumerName = "checkout-portal"

	StateOrderExists  = "order with id 301 exists in zone ca-bc"
	StateOrderMissing = "no order with id 999"
)

const (
	ExistingOrderID int64 = 301
	MissingOrderID  int64 = 999

	ExampleZone         = "ca-bc"
	ExampleCurrency     = "CAD"
	ExampleCategoryCode = "goods"
	ExampleVariantCode  = "pact-tee"
	ExampleUnitPrice    = int64(1000)

	// ExampleTaxTotal is GST 5% plus PST 7% on ExampleUnitPrice.
	ExampleTaxTotal = int64(120)
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the checkout portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
