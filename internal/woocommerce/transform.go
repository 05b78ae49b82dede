package woocommerce

import (
	"strconv"

	"commerce-unify/internal/adapter"
)

// toAdapterProduct maps a WooCommerce product into the platform-neutral shape.
// Price stays a string; the importer parses it.
func toAdapterProduct(p WooProduct) adapter.Product {
	return adapter.Product{
		ExternalID: strconv.Itoa(p.ID),
		Name:       p.Name,
		SKU:        p.SKU,
		Price:      p.Price,
		Stock:      p.StockQuantity,
		Currency:   p.Currency,
	}
}

// toAdapterProducts maps a page of WooCommerce products.
func toAdapterProducts(products []WooProduct) []adapter.Product {
	out := make([]adapter.Product, 0, len(products))
	for _, p := range products {
		out = append(out, toAdapterProduct(p))
	}
	return out
}
