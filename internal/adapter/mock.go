package adapter

import (
	"context"
)

// Mock implements Storefront for testing.
// Each method can be configured via function fields.
type Mock struct {
	ListProductsFunc func(ctx context.Context) ([]Product, error)
}

// ListProducts calls the configured ListProductsFunc or returns an empty catalog.
func (m *Mock) ListProducts(ctx context.Context) ([]Product, error) {
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx)
	}
	return nil, nil
}

// MockFactory returns a Factory that always yields s and records the config
// it was called with.
func MockFactory(s Storefront, got *Config) Factory {
	return func(cfg Config) (Storefront, error) {
		if got != nil {
			*got = cfg
		}
		return s, nil
	}
}

// Verify Mock implements Storefront interface at compile time.
var _ Storefront = (*Mock)(nil)
