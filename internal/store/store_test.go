package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"commerce-unify/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	s := New(db)
	require.NoError(t, s.Migrate())
	return s
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return New(gormDB), mock, mockDB
}

func seedMerchant(t *testing.T, s *Store, id string) {
	t.Helper()
	require.NoError(t, s.db.Create(&Merchant{ID: id, Name: "Shop " + id, Platform: "woocommerce"}).Error)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestStore_FindMerchant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMerchant(t, s, "m1")

	t.Run("existing merchant", func(t *testing.T) {
		m, err := s.FindMerchant(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, "Shop m1", m.Name)
		assert.Equal(t, "woocommerce", m.Platform)
	})

	t.Run("unknown merchant", func(t *testing.T) {
		m, err := s.FindMerchant(ctx, "nope")
		assert.Nil(t, m)
		assert.True(t, model.Is(err, model.KindNotFound))
		assert.EqualError(t, err, "NOT_FOUND: Merchant not found (not found)")
	})
}

func TestStore_UpsertProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMerchant(t, s, "m1")

	initial := []Product{
		{ID: "7", MerchantID: "m1", Name: "Mug", Price: decimal.RequireFromString("12.50"), Currency: "USD"},
		{ID: "8", MerchantID: "m1", Name: "Cap", SKU: strPtr("CAP-1"), Price: decimal.NewFromInt(20), Stock: intPtr(3), Currency: "USD",
			FormatACP: datatypes.JSON(`{"description":"custom"}`)},
	}
	require.NoError(t, s.UpsertProducts(ctx, initial))

	count, err := s.CountProducts(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	mug, err := s.FindProduct(ctx, "7")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(12.5).Equal(mug.Price), "price = %s", mug.Price)
	assert.Nil(t, mug.Stock)
	assert.Nil(t, mug.SKU)

	t.Run("re-import overwrites mutable fields and clears overrides", func(t *testing.T) {
		updated := []Product{
			{ID: "8", MerchantID: "m1", Name: "Cap v2", Price: decimal.NewFromInt(25), Stock: intPtr(0), Currency: "EUR"},
		}
		require.NoError(t, s.UpsertProducts(ctx, updated))

		hat, err := s.FindProduct(ctx, "8")
		require.NoError(t, err)
		assert.Equal(t, "Cap v2", hat.Name)
		assert.Nil(t, hat.SKU)
		assert.True(t, decimal.NewFromInt(25).Equal(hat.Price))
		require.NotNil(t, hat.Stock)
		assert.Equal(t, 0, *hat.Stock)
		assert.Equal(t, "EUR", hat.Currency)
		assert.Empty(t, hat.FormatACP)

		count, err := s.CountProducts(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		assert.NoError(t, s.UpsertProducts(ctx, nil))
	})
}

func TestStore_ListProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMerchant(t, s, "m1")
	seedMerchant(t, s, "m2")

	require.NoError(t, s.UpsertProducts(ctx, []Product{
		{ID: "b", MerchantID: "m1", Name: "B", Price: decimal.NewFromInt(1), Currency: "USD"},
		{ID: "a", MerchantID: "m1", Name: "A", Price: decimal.NewFromInt(1), Currency: "USD"},
		{ID: "c", MerchantID: "m2", Name: "C", Price: decimal.NewFromInt(1), Currency: "USD"},
	}))

	products, err := s.ListProducts(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "a", products[0].ID)
	assert.Equal(t, "b", products[1].ID)

	empty, err := s.ListProducts(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)

	m, err := s.FindMerchantWithProducts(ctx, "m2")
	require.NoError(t, err)
	require.Len(t, m.Products, 1)
	assert.Equal(t, "c", m.Products[0].ID)
}

func TestStore_FindProductNotFound(t *testing.T) {
	s := newTestStore(t)

	p, err := s.FindProduct(context.Background(), "missing")
	assert.Nil(t, p)
	assert.True(t, model.Is(err, model.KindNotFound))
}

func TestStore_Orders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &Order{
		MerchantID: "m1", ProductID: "p1", Protocol: model.ProtocolACP,
		Status: StatusAuthorized, Amount: decimal.NewFromInt(30), ExternalID: "cart_1",
		Metadata: datatypes.JSONMap{"channel": "agent"},
	}
	require.NoError(t, s.CreateOrder(ctx, first))
	assert.Len(t, first.ID, 36)

	second := &Order{
		MerchantID: "m1", ProductID: "p1", Protocol: model.ProtocolACP,
		Status: StatusAuthorized, Amount: decimal.NewFromInt(10), ExternalID: "cart_1",
		Metadata: datatypes.JSONMap{},
	}
	require.NoError(t, s.CreateOrder(ctx, second))
	assert.NotEqual(t, first.ID, second.ID)

	got, err := s.FindOrder(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "agent", got.Metadata["channel"])
	assert.True(t, decimal.NewFromInt(30).Equal(got.Amount))

	t.Run("update by external id touches every match", func(t *testing.T) {
		n, err := s.UpdateOrderStatusByExternalID(ctx, "cart_1", StatusFailed)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		for _, id := range []string{first.ID, second.ID} {
			o, err := s.FindOrder(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, StatusFailed, o.Status)
		}
	})

	t.Run("no match is not an error", func(t *testing.T) {
		n, err := s.UpdateOrderStatusByExternalID(ctx, "cart_unknown", StatusFailed)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := s.FindOrder(ctx, "00000000-0000-0000-0000-000000000000")
		assert.True(t, model.Is(err, model.KindNotFound))
	})
}

func TestStore_UpdateOrderStatusPostgres(t *testing.T) {
	s, mock, mockDB := newMockStore(t)
	defer mockDB.Close()

	mock.ExpectExec(`UPDATE "orders" SET "status"=\$1,"updated_at"=\$2 WHERE external_id = \$3`).
		WithArgs("CAPTURED", sqlmock.AnyArg(), "pm_tok").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.UpdateOrderStatusByExternalID(context.Background(), "pm_tok", StatusCaptured)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FindProductPostgresNotFound(t *testing.T) {
	s, mock, mockDB := newMockStore(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1 ORDER BY .* LIMIT .*`).
		WithArgs("p9", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	p, err := s.FindProduct(context.Background(), "p9")
	assert.Nil(t, p)
	assert.True(t, model.Is(err, model.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	assert.EqualError(t, err, "unsupported database driver: oracle")
}
