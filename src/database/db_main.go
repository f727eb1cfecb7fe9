package database

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"settlementapi/src/model"
)

// MainDB is the primary read/write database connection used by the application.
var MainDB *gorm.DB

// InitMainDB initializes the main (read/write) database connection and runs migrations.
// This should be called once at application startup (e.g. in main()).
func InitMainDB() error {
	config := GetConfig()

	db, err := gorm.Open(postgres.Open(config.DatabaseURLMain),
		&gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
		},
	)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to get DB from GORM")
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	if err := Migrate(db); err != nil {
		logrus.WithError(err).Fatal("Failed to migrate database")
	}

	// Assign to the global variable only after a successful connection.
	MainDB = db
	logrus.Info("Database connection initialized")
	return nil
}

// Migrate creates or updates the settlement schema. Exported so tests can run
// the same migrations against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.ExchangeHouse{},
		&model.CurrencyPair{},
		&model.Order{},
		&model.Commission{},
		&model.OperatorCashBalance{},
		&model.CashMovement{},
		&model.CommissionPaymentRequest{},
		&model.CommissionPaymentRequestItem{},
		&model.AuditLog{},
		&model.AuditChainHead{},
		&model.Exception{},
	)
}
