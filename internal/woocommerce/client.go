package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"commerce-unify/internal/adapter"
	"commerce-unify/internal/model"
	"commerce-unify/internal/transport"
)

// =============================================================================
// CATALOG FETCH
// =============================================================================
//
// Products are read from the REST API v3 (not the Store API) because it
// returns stock and SKU for every product. Each call fetches a single page of
// at most 100 products; there is no pagination loop, so larger catalogs are
// truncated.
//
// Requests are authenticated with OAuth 1.0a one-legged signing, which
// WooCommerce accepts over both HTTP and HTTPS. See signRequest.
// =============================================================================

// productsPath is the REST API v3 products endpoint.
// Must include /wp-json prefix for proper routing.
const productsPath = "/wp-json/wc/v3/products"

// pageSize is the per_page cap for a single fetch.
const pageSize = 100

// Config holds WooCommerce-specific adapter configuration.
type Config struct {
	StoreURL    string
	APIKey      string // consumer key, ck_...
	APISecret   string // consumer secret, cs_...
	Fingerprint transport.Fingerprint
	HTTPClient  *http.Client // overrides the fingerprinted client, used by tests
	Logger      *slog.Logger
}

// Client implements adapter.Storefront for WooCommerce stores.
type Client struct {
	httpClient *http.Client
	origin     string
	apiKey     string
	apiSecret  string
	logger     *slog.Logger

	now   func() time.Time
	nonce func() string
}

// New creates a WooCommerce client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.StoreURL == "" {
		return nil, fmt.Errorf("store URL is required")
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("API credentials are required")
	}

	origin, err := storeOrigin(cfg.StoreURL)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Chrome TLS fingerprint avoids JA3-based rate limiting on store CDNs.
		httpClient = transport.NewClient(cfg.Fingerprint, 30*time.Second)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: httpClient,
		origin:     origin,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		logger:     logger,
		now:        time.Now,
		nonce:      uuid.NewString,
	}, nil
}

// NewStorefront adapts New to adapter.Factory.
func NewStorefront(fp transport.Fingerprint, logger *slog.Logger) adapter.Factory {
	return func(cfg adapter.Config) (adapter.Storefront, error) {
		return New(Config{
			StoreURL:    cfg.StoreURL,
			APIKey:      cfg.APIKey,
			APISecret:   cfg.APISecret,
			Fingerprint: fp,
			Logger:      logger,
		})
	}
}

// storeOrigin reduces a store URL to scheme://host. The API path is absolute,
// so any path on the configured URL is dropped.
func storeOrigin(storeURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(storeURL))
	if err != nil {
		return "", fmt.Errorf("invalid store URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid store URL: %q", storeURL)
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}

// FetchProducts returns up to 100 products from the store.
// A non-2xx response fails with an IntegrationError carrying the status code.
func (c *Client) FetchProducts(ctx context.Context) ([]WooProduct, error) {
	endpoint := c.origin + productsPath
	query := url.Values{"per_page": {fmt.Sprint(pageSize)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", c.signRequest(http.MethodGet, endpoint, query))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewIntegrationError("WooCommerce", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logErrorResponse(resp)
		return nil, model.NewUpstreamStatusError("WooCommerce", resp.StatusCode)
	}

	var products []WooProduct
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, model.NewIntegrationError("WooCommerce", fmt.Errorf("parsing response: %w", err))
	}

	c.logger.Debug("woocommerce products fetched",
		slog.String("store", c.origin),
		slog.Int("count", len(products)),
	)
	return products, nil
}

// ListProducts implements adapter.Storefront.
func (c *Client) ListProducts(ctx context.Context) ([]adapter.Product, error) {
	products, err := c.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}
	return toAdapterProducts(products), nil
}

// userAgent identifies this client to upstream servers.
// Required: WooCommerce CDN/WAF rate-limits requests without User-Agent.
const userAgent = "Commerce-Unify/1.0"

// logErrorResponse records the WooCommerce error code for operators.
// The body never reaches API clients.
func (c *Client) logErrorResponse(resp *http.Response) {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var wcErr WooErrorResponse
	json.Unmarshal(body, &wcErr) // Best effort parse

	c.logger.Warn("woocommerce request failed",
		slog.String("store", c.origin),
		slog.Int("status", resp.StatusCode),
		slog.String("code", wcErr.Code),
		slog.String("message", wcErr.Message),
	)
}

var _ adapter.Storefront = (*Client)(nil)
