package controller_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"settlementapi/src/controller"
	"settlementapi/src/database"
	"settlementapi/src/model"
	"settlementapi/src/queue"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newTestDB creates a named in-memory database and migrates the full schema.
// Each test gets its own database so state never leaks between tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	return db
}

func testConfig() controller.Config {
	return controller.Config{
		PlatformCommissionPercent: "0.15",
		MinReasonLength:           10,
	}
}

func seedHouse(t *testing.T, db *gorm.DB) *model.ExchangeHouse {
	t.Helper()

	house := &model.ExchangeHouse{
		Name:                   "Casa Central",
		Active:                 true,
		CommissionModel:        model.CommissionModelPercentage,
		HouseCommissionPercent: d("5"),
	}
	require.NoError(t, db.Create(house).Error)
	return house
}

func seedPair(t *testing.T, db *gorm.DB) *model.CurrencyPair {
	t.Helper()

	pair := &model.CurrencyPair{
		BaseCurrency:    "USD",
		QuoteCurrency:   "VES",
		CalculationType: model.CalculationTypeMultiply,
		MinAmount:       d("10"),
		MaxAmount:       d("100000"),
		MarketRate:      d("36.4"),
		BuyRate:         d("36.2"),
		SellRate:        d("36.7"),
		Active:          true,
	}
	require.NoError(t, db.Create(pair).Error)
	return pair
}

type fixture struct {
	db      *gorm.DB
	mem     *queue.Memory
	orders  *controller.OrderController
	cash    *controller.CashController
	payouts *controller.PayoutController
	house   *model.ExchangeHouse
	pair    *model.CurrencyPair
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	mem := queue.NewMemory(0)
	cfg := testConfig()

	return &fixture{
		db:      db,
		mem:     mem,
		orders:  controller.NewOrderController(db, mem, cfg),
		cash:    controller.NewCashController(db),
		payouts: controller.NewPayoutController(db, cfg),
		house:   seedHouse(t, db),
		pair:    seedPair(t, db),
	}
}

// createOrder opens a standard test order: base 1000 at rate 36.5 with the
// house's 5% percentage model.
func (f *fixture) createOrder(t *testing.T) *model.Order {
	t.Helper()

	order, err := f.orders.CreateOrder(context.Background(), controller.CreateOrderInput{
		ExchangeHouseID: f.house.ID,
		CurrencyPairID:  f.pair.ID,
		UserID:          1,
		BaseAmount:      d("1000"),
		AppliedRate:     d("36.5"),
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) commissionsOf(t *testing.T, orderID uint) []model.Commission {
	t.Helper()

	var commissions []model.Commission
	require.NoError(t, f.db.Where("order_id = ?", orderID).Order("id ASC").Find(&commissions).Error)
	return commissions
}
