package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"commerce-unify/internal/model"
)

// OrderStatus is the persisted order state. The valid subset depends on the
// protocol: ACP orders are AUTHORIZED or FAILED, AP2 orders are PENDING,
// CAPTURED or FAILED.
type OrderStatus string

const (
	StatusAuthorized OrderStatus = "AUTHORIZED"
	StatusPending    OrderStatus = "PENDING"
	StatusCaptured   OrderStatus = "CAPTURED"
	StatusFailed     OrderStatus = "FAILED"
)

// Merchant owns products and orders. Rows are provisioned out-of-band.
type Merchant struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"not null"`
	Platform  string    `gorm:"size:32;not null;default:'woocommerce'"`
	Products  []Product `gorm:"foreignKey:MerchantID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product is the canonical catalog row. The ID is the storefront's product id.
// FormatACP and FormatAP2 hold sparse protocol overrides; NULL means none.
type Product struct {
	ID         string          `gorm:"primaryKey;size:64"`
	MerchantID string          `gorm:"size:64;not null;index"`
	Name       string          `gorm:"not null"`
	SKU        *string         `gorm:"column:sku"`
	Price      decimal.Decimal `gorm:"type:numeric;not null"`
	Stock      *int
	Currency   string         `gorm:"size:3;not null;default:'USD'"`
	FormatACP  datatypes.JSON `gorm:"column:format_acp"`
	FormatAP2  datatypes.JSON `gorm:"column:format_ap2"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Order records one checkout. Only Status changes after creation.
// ExternalID is the reconciliation key and is deliberately not unique.
type Order struct {
	ID           string          `gorm:"primaryKey;size:36"`
	MerchantID   string          `gorm:"size:64;not null;index"`
	ProductID    string          `gorm:"size:64;not null;index"`
	Protocol     model.Protocol  `gorm:"size:8;not null"`
	Status       OrderStatus     `gorm:"size:16;not null"`
	Amount       decimal.Decimal `gorm:"type:numeric;not null"`
	ExternalID   string          `gorm:"column:external_id;index"`
	Metadata     datatypes.JSONMap
	AgentProfile string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BeforeCreate assigns a UUID when the caller did not.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// allModels lists every table managed by Migrate.
func allModels() []any {
	return []any{&Merchant{}, &Product{}, &Order{}}
}
