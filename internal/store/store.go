// Package store persists merchants, products and orders through GORM.
// A single Store (and its connection pool) is opened at process start and
// shared by every request handler.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"commerce-unify/internal/model"
)

// Config selects the database driver and pool limits.
type Config struct {
	Driver          string // "postgres" or "sqlite"
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Debug           bool // log every statement
}

// Store is the repository for all three tables.
type Store struct {
	db *gorm.DB
}

// New wraps an already opened GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects, configures the pool and pings the database.
func Open(cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(allModels()...)
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool. Only called at process exit.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// FindMerchant returns a merchant without its products.
func (s *Store) FindMerchant(ctx context.Context, id string) (*Merchant, error) {
	var merchant Merchant
	if err := s.db.WithContext(ctx).First(&merchant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NewNotFoundError("Merchant")
		}
		return nil, fmt.Errorf("finding merchant %s: %w", id, err)
	}
	return &merchant, nil
}

// FindMerchantWithProducts returns a merchant with its catalog preloaded.
func (s *Store) FindMerchantWithProducts(ctx context.Context, id string) (*Merchant, error) {
	var merchant Merchant
	err := s.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&merchant, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NewNotFoundError("Merchant")
		}
		return nil, fmt.Errorf("finding merchant %s: %w", id, err)
	}
	return &merchant, nil
}

// FindProduct returns a product by id.
func (s *Store) FindProduct(ctx context.Context, id string) (*Product, error) {
	var product Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NewNotFoundError("Product")
		}
		return nil, fmt.Errorf("finding product %s: %w", id, err)
	}
	return &product, nil
}

// ListProducts returns every product of a merchant ordered by id.
// An unknown merchant yields an empty list.
func (s *Store) ListProducts(ctx context.Context, merchantID string) ([]Product, error) {
	var products []Product
	if err := s.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("id").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("listing products for %s: %w", merchantID, err)
	}
	return products, nil
}

// CountProducts returns how many products a merchant has.
func (s *Store) CountProducts(ctx context.Context, merchantID string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Product{}).
		Where("merchant_id = ?", merchantID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting products for %s: %w", merchantID, err)
	}
	return count, nil
}

// upsertColumns are overwritten when an imported product already exists.
// merchant_id and created_at are kept from the first import.
var upsertColumns = []string{"name", "sku", "price", "stock", "currency", "format_acp", "format_ap2", "updated_at"}

// UpsertProducts inserts or updates all products in one transaction, keyed by id.
// Either every row is applied or none is.
func (s *Store) UpsertProducts(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).CreateInBatches(&products, 100).Error
		if err != nil {
			return fmt.Errorf("upserting %d products: %w", len(products), err)
		}
		return nil
	})
}

// CreateOrder inserts a new order, assigning its id.
func (s *Store) CreateOrder(ctx context.Context, order *Order) error {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("creating order: %w", err)
	}
	return nil
}

// FindOrder returns an order by id.
func (s *Store) FindOrder(ctx context.Context, id string) (*Order, error) {
	var order Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NewNotFoundError("Order")
		}
		return nil, fmt.Errorf("finding order %s: %w", id, err)
	}
	return &order, nil
}

// UpdateOrderStatusByExternalID sets status on every order whose external id
// matches, returning the number of rows touched. Zero, one or many rows may
// match; the assignment is absolute so replays are harmless.
func (s *Store) UpdateOrderStatusByExternalID(ctx context.Context, externalID string, status OrderStatus) (int64, error) {
	result := s.db.WithContext(ctx).Model(&Order{}).
		Where("external_id = ?", externalID).
		Update("status", status)
	if result.Error != nil {
		return 0, fmt.Errorf("updating orders for %s: %w", externalID, result.Error)
	}
	return result.RowsAffected, nil
}
