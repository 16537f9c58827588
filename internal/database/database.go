// Package database owns the gorm connection and schema migration.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dropshipping-service/internal/models"
)

// Connect opens the PostgreSQL connection with sane pool settings
func Connect(dsn, environment string) (*gorm.DB, error) {
	logLevel := logger.Warn
	if environment == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate auto-migrates every model this service owns
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.SupplierAccount{},
		&models.ExternalCatalogItem{},
		&models.LocalProduct{},
		&models.SyncRun{},
		&models.LocalOrder{},
		&models.LocalOrderLine{},
		&models.SupplierOrder{},
		&models.SystemAlert{},
		&models.ApiCallLog{},
	)
}
