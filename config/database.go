package config

import (
	"fmt"
	"log"

	"github.com/aaandrangom/biblioteca-api/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the gorm dialector for the configured driver
func Dialector(driver, databaseURL string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(databaseURL), nil
	case "mysql":
		return mysql.Open(databaseURL), nil
	case "sqlite":
		return sqlite.Open(databaseURL), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// ConnectDatabase establishes a connection to the relational database
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(GormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Printf("Database connection established successfully (%s)", cfg.DatabaseDriver)
	return db, nil
}

// GormLogLevel maps LOG_LEVEL onto gorm's logger levels. Unknown values fall back to warnings.
func GormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	}
	return logger.Warn
}

// Migrate creates or updates every relational table the API uses
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Book{},
		&models.InventoryCopy{},
		&models.User{},
		&models.Order{},
		&models.OrderLine{},
	)
}
