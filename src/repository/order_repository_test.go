package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"settlementapi/src/model"
)

func TestOrderRepositoryFindByOrderNumber(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := NewOrderRepositoryWithDB(mockDB)

	createdAt := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "order_number", "exchange_house_id", "user_id", "base_amount", "status", "created_at"}).
		AddRow(uint(7), "ORD-ABC", uint(1), uint(3), decimal.RequireFromString("1000"), model.OrderStatusPending, createdAt)

	mock.ExpectQuery(`SELECT (.+) FROM "orders" WHERE order_number = (.+)`).
		WithArgs("ORD-ABC", 1).
		WillReturnRows(rows)

	order, err := repo.FindByOrderNumber(context.Background(), "ORD-ABC")
	if err != nil {
		t.Fatalf("unexpected error fetching order: %v", err)
	}
	if order == nil || order.ID != 7 {
		t.Fatalf("unexpected order returned: %+v", order)
	}
	if order.Status != model.OrderStatusPending {
		t.Fatalf("unexpected status: %s", order.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestOrderRepositoryFindByIDNotFound(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := NewOrderRepositoryWithDB(mockDB)

	mock.ExpectQuery(`SELECT (.+) FROM "orders" WHERE "orders"."id" = (.+)`).
		WithArgs(uint(99), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	order, err := repo.FindByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("missing order must not error: %v", err)
	}
	if order != nil {
		t.Fatalf("expected nil order, got %+v", order)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestOrderRepositoryFindByIDForUpdateLocksRow(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := NewOrderRepositoryWithDB(mockDB)

	rows := sqlmock.NewRows([]string{"id", "order_number", "status"}).
		AddRow(uint(7), "ORD-ABC", model.OrderStatusPending)

	// the postgres dialect must emit the row lock
	mock.ExpectQuery(`SELECT (.+) FROM "orders" WHERE "orders"."id" = (.+) FOR UPDATE`).
		WithArgs(uint(7), 1).
		WillReturnRows(rows)

	order, err := repo.FindByIDForUpdate(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error locking order: %v", err)
	}
	if order == nil || order.ID != 7 {
		t.Fatalf("unexpected order returned: %+v", order)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestOrderRepositoryFindLatest(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := NewOrderRepositoryWithDB(mockDB)

	rows := sqlmock.NewRows([]string{"id", "order_number", "exchange_house_id"}).
		AddRow(uint(9), "ORD-B", uint(1)).
		AddRow(uint(8), "ORD-A", uint(1))

	mock.ExpectQuery(`SELECT (.+) FROM "orders" WHERE exchange_house_id = (.+) ORDER BY id DESC`).
		WithArgs(uint(1), 2).
		WillReturnRows(rows)

	orders, err := repo.FindLatest(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error fetching latest orders: %v", err)
	}
	if len(orders) != 2 || orders[0].ID != 9 {
		t.Fatalf("orders not returned newest first: %+v", orders)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to open gorm DB with sqlmock: %v", err)
	}

	return gdb, mock
}
