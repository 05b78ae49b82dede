// Package adapter defines the interface for storefront platform integrations.
// Adapters translate platform-specific catalog APIs into Product values the
// importer can persist.
package adapter

import (
	"context"
	"fmt"
)

// Storefront is a read-only view of an external store's catalog.
// Each platform (WooCommerce today) provides its own implementation.
type Storefront interface {
	// ListProducts returns the store's products.
	// Implementations may cap the result at a single page.
	ListProducts(ctx context.Context) ([]Product, error)
}

// Product is a storefront product before it is mapped into the local catalog.
// Price stays a decimal string as the platform reported it; the importer
// decides how to parse it.
// Descriptions and media are not carried: imported rows get them only from
// protocol overrides, which a sync clears.
type Product struct {
	ExternalID string
	Name       string
	SKU        *string
	Price      string
	Stock      *int    // nil when the store does not track stock
	Currency   *string // nil when the store omits it
}

// Config holds the credentials for one storefront.
type Config struct {
	Platform  string
	StoreURL  string
	APIKey    string
	APISecret string
}

// Factory builds a Storefront for a merchant's platform and credentials.
type Factory func(cfg Config) (Storefront, error)

// UnsupportedPlatformError is returned by factories for unknown platforms.
func UnsupportedPlatformError(platform string) error {
	return fmt.Errorf("unsupported storefront platform: %s", platform)
}
