//go:build integration
// +build integration

// Integration tests for WooCommerce client.
// Run with: go test -tags=integration ./internal/woocommerce/... -v
//
// Required environment variables:
//
//	WOOCOMMERCE_STORE_URL  - WooCommerce store URL (e.g., https://shop.example.com)
//	WOOCOMMERCE_API_KEY    - REST API consumer key
//	WOOCOMMERCE_API_SECRET - REST API consumer secret
package woocommerce

import (
	"context"
	"os"
	"testing"
	"time"

	"commerce-unify/internal/transport"
)

func TestIntegration_ListProducts(t *testing.T) {
	storeURL := os.Getenv("WOOCOMMERCE_STORE_URL")
	apiKey := os.Getenv("WOOCOMMERCE_API_KEY")
	apiSecret := os.Getenv("WOOCOMMERCE_API_SECRET")
	if storeURL == "" || apiKey == "" || apiSecret == "" {
		t.Skip("Skipping integration test: WOOCOMMERCE_* env vars not set")
	}

	client, err := New(Config{
		StoreURL:    storeURL,
		APIKey:      apiKey,
		APISecret:   apiSecret,
		Fingerprint: transport.FingerprintChrome,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	products, err := client.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	if len(products) > pageSize {
		t.Errorf("len(products) = %d, want <= %d", len(products), pageSize)
	}
	for _, p := range products {
		if p.ExternalID == "" || p.ExternalID == "0" {
			t.Errorf("product %q has no id", p.Name)
		}
	}
	t.Logf("fetched %d products", len(products))
}
