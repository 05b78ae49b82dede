// Package catalog imports storefront products into the local product table.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"commerce-unify/internal/adapter"
	"commerce-unify/internal/model"
	"commerce-unify/internal/store"
)

// syncPlatform is the storefront every sync reads from. Requests carry
// WooCommerce credentials, so the merchant's platform tag does not select it.
const syncPlatform = "woocommerce"

// Catalog is the subset of the store used by the importer.
type Catalog interface {
	FindMerchant(ctx context.Context, id string) (*store.Merchant, error)
	UpsertProducts(ctx context.Context, products []store.Product) error
	CountProducts(ctx context.Context, merchantID string) (int64, error)
}

// SyncRequest asks for one merchant's catalog to be pulled from WooCommerce.
type SyncRequest struct {
	MerchantID  string       `json:"merchantId" validate:"required"`
	WooCommerce *Credentials `json:"wooCommerce" validate:"required"`
}

// Credentials are the storefront API credentials supplied with a sync.
type Credentials struct {
	StoreURL string `json:"storeUrl" validate:"required,url"`
	Key      string `json:"key" validate:"required"`
	Secret   string `json:"secret" validate:"required"`
}

// SyncResult reports how many products the merchant has after the sync.
type SyncResult struct {
	MerchantID string `json:"merchantId"`
	Count      int64  `json:"count"`
}

// Importer fetches a storefront catalog and upserts it in one transaction.
type Importer struct {
	catalog  Catalog
	factory  adapter.Factory
	validate *validator.Validate
	logger   *slog.Logger
}

// NewImporter creates an Importer.
func NewImporter(catalog Catalog, factory adapter.Factory, logger *slog.Logger) *Importer {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Importer{
		catalog:  catalog,
		factory:  factory,
		validate: v,
		logger:   logger,
	}
}

// Sync imports the merchant's storefront products.
//
// Every fetched product is upserted keyed on its storefront id. Name, SKU,
// price, stock and currency are overwritten and both protocol overrides are
// cleared. Nothing is written if the fetch fails.
func (i *Importer) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	if err := i.validateRequest(req); err != nil {
		return nil, err
	}

	merchant, err := i.catalog.FindMerchant(ctx, req.MerchantID)
	if err != nil {
		return nil, err
	}

	if merchant.Platform != "" && merchant.Platform != syncPlatform {
		i.logger.WarnContext(ctx, "merchant platform tag differs from sync source",
			slog.String("merchant_id", merchant.ID),
			slog.String("platform", merchant.Platform),
		)
	}

	storefront, err := i.factory(adapter.Config{
		Platform:  syncPlatform,
		StoreURL:  req.WooCommerce.StoreURL,
		APIKey:    req.WooCommerce.Key,
		APISecret: req.WooCommerce.Secret,
	})
	if err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	fetched, err := storefront.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	products := make([]store.Product, 0, len(fetched))
	for _, p := range fetched {
		products = append(products, toProduct(merchant.ID, p))
	}

	if err := i.catalog.UpsertProducts(ctx, products); err != nil {
		return nil, fmt.Errorf("storing catalog: %w", err)
	}

	count, err := i.catalog.CountProducts(ctx, merchant.ID)
	if err != nil {
		return nil, err
	}

	i.logger.Info("catalog synced",
		slog.String("merchant_id", merchant.ID),
		slog.String("platform", syncPlatform),
		slog.Int("fetched", len(fetched)),
		slog.Int64("stored", count),
	)

	return &SyncResult{MerchantID: merchant.ID, Count: count}, nil
}

// toProduct maps a storefront product into a local row.
// Overrides are left nil so the upsert resets them.
func toProduct(merchantID string, p adapter.Product) store.Product {
	currency := "USD"
	if p.Currency != nil && *p.Currency != "" {
		currency = *p.Currency
	}
	return store.Product{
		ID:         p.ExternalID,
		MerchantID: merchantID,
		Name:       p.Name,
		SKU:        p.SKU,
		Price:      model.ParsePrice(p.Price),
		Stock:      p.Stock,
		Currency:   currency,
	}
}

// validateRequest reports the first failing field as a ValidationError.
func (i *Importer) validateRequest(req SyncRequest) error {
	err := i.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return model.NewValidationError("invalid sync request")
	}
	return model.NewValidationError(validationMessage(verrs[0]))
}

// validationMessage returns a human-readable validation message.
func validationMessage(e validator.FieldError) string {
	// Namespace is "SyncRequest.wooCommerce.storeUrl"; drop the type name.
	field := e.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch e.Tag() {
	case "required":
		return field + " is required"
	case "url":
		return field + " must be a valid URL"
	default:
		return field + " is invalid"
	}
}
