// Package feed projects stored products into the product shapes of each
// checkout protocol. Every function here is pure.
//
// Canonical fields (id, title, price, currency, stock) always come from the
// product row. Only description and media may come from the protocol
// override stored alongside the row.
package feed

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"commerce-unify/internal/model"
	"commerce-unify/internal/store"
)

// ToACPProduct builds the flat token-protocol product.
func ToACPProduct(p store.Product) model.ACPProduct {
	out := model.ACPProduct{
		ID:           p.ID,
		Title:        p.Name,
		Price:        price(p),
		Availability: availability(p.Stock),
	}

	var override model.ACPOverride
	if decodeOverride(p.FormatACP, &override) {
		out.Description = override.Description
		out.Media = override.Media
	}
	return out
}

// ToAP2Product builds the nested intent-protocol product.
func ToAP2Product(p store.Product) model.AP2Product {
	out := model.AP2Product{
		Product: model.AP2ProductInfo{
			ID:    p.ID,
			Title: p.Name,
		},
		Pricing:   price(p),
		Inventory: model.AP2Inventory{Available: p.Stock},
	}

	var override model.AP2Override
	if decodeOverride(p.FormatAP2, &override) && override.Product != nil {
		out.Product.Description = override.Product.Description
		out.Product.Media = override.Product.Media
	}
	return out
}

func availability(stock *int) model.ACPAvailability {
	if stock == nil || *stock > 0 {
		return model.AvailabilityInStock
	}
	return model.AvailabilityOutOfStock
}

func price(p store.Product) model.Price {
	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}
	return model.Price{Amount: p.Price.InexactFloat64(), Currency: currency}
}

// decodeOverride reports whether raw held a usable override.
// NULL, empty and malformed payloads are all treated as absent.
func decodeOverride(raw datatypes.JSON, dst any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// ProductView is the canonical product as served in the unified listing.
type ProductView struct {
	ID         string          `json:"id"`
	MerchantID string          `json:"merchantId"`
	Name       string          `json:"name"`
	SKU        *string         `json:"sku"`
	Price      float64         `json:"price"`
	Stock      *int            `json:"stock"`
	Currency   string          `json:"currency"`
	FormatACP  json.RawMessage `json:"formatACP"`
	FormatAP2  json.RawMessage `json:"formatAP2"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Projection pairs a product row with its protocol projections.
// A projection is nil when the caller filtered it out.
type Projection struct {
	Base ProductView       `json:"base"`
	ACP  *model.ACPProduct `json:"acp,omitempty"`
	AP2  *model.AP2Product `json:"ap2,omitempty"`
}

// Project returns the base row and the projection for protocol,
// or both projections when protocol is empty.
func Project(p store.Product, protocol model.Protocol) Projection {
	out := Projection{Base: view(p)}
	if protocol == "" || protocol == model.ProtocolACP {
		acp := ToACPProduct(p)
		out.ACP = &acp
	}
	if protocol == "" || protocol == model.ProtocolAP2 {
		ap2 := ToAP2Product(p)
		out.AP2 = &ap2
	}
	return out
}

func view(p store.Product) ProductView {
	return ProductView{
		ID:         p.ID,
		MerchantID: p.MerchantID,
		Name:       p.Name,
		SKU:        p.SKU,
		Price:      p.Price.InexactFloat64(),
		Stock:      p.Stock,
		Currency:   p.Currency,
		FormatACP:  rawOrNull(p.FormatACP),
		FormatAP2:  rawOrNull(p.FormatAP2),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func rawOrNull(raw datatypes.JSON) json.RawMessage {
	if len(raw) == 0 || !json.Valid(raw) {
		return json.RawMessage("null")
	}
	return json.RawMessage(raw)
}

// MerchantInfo is the merchant header of a product feed.
type MerchantInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Platform string `json:"platform"`
}

// AP2Feed is the intent-protocol product feed of one merchant.
type AP2Feed struct {
	Merchant MerchantInfo       `json:"merchant"`
	Products []model.AP2Product `json:"products"`
}

// BuildAP2Feed projects every product of m. Products must be preloaded.
func BuildAP2Feed(m store.Merchant) AP2Feed {
	feed := AP2Feed{
		Merchant: MerchantInfo{ID: m.ID, Name: m.Name, Platform: m.Platform},
		Products: make([]model.AP2Product, 0, len(m.Products)),
	}
	for _, p := range m.Products {
		feed.Products = append(feed.Products, ToAP2Product(p))
	}
	return feed
}
