// Package woocommerce implements the storefront adapter for WooCommerce stores
// using the REST API v3. All WooCommerce-specific types, transforms, and HTTP
// client logic live here.
package woocommerce

// === WooCommerce API Response Types ===

// WooProduct represents a product from GET /wp-json/wc/v3/products.
// Fields the importer does not use are omitted.
type WooProduct struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	SKU           *string `json:"sku,omitempty"`
	Price         string  `json:"price"` // "12.50" - string decimal, "" when unpriced
	StockQuantity *int    `json:"stock_quantity"`
	Currency      *string `json:"currency,omitempty"`
}

// WooErrorResponse represents a WooCommerce REST API error body.
type WooErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
	} `json:"data"`
}
