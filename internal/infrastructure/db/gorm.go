package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormLogLevel maps the service log level onto gorm's own logger.
func GormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return logger.Info
	case "error":
		return logger.Error
	case "disabled", "off":
		return logger.Silent
	default:
		return logger.Warn
	}
}

// Open connects with the driver named by DB_DRIVER.
func Open(driver, dsn string, level logger.LogLevel) (*gorm.DB, error) {
	switch strings.ToLower(driver) {
	case "", "mysql":
		return OpenGorm(dsn, level)
	case "sqlite":
		return OpenSQLite(dsn, level)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func OpenGorm(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	db, err := open(mysql.Open(dsn), level)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	return db, nil
}

// OpenSQLite is for local runs. A single connection keeps ":memory:" databases coherent
// and serializes writers the way sqlite wants anyway.
func OpenSQLite(path string, level logger.LogLevel) (*gorm.DB, error) {
	if path == "" {
		path = "tradecore.db"
	}
	db, err := open(sqlite.Open(path), level)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// OpenGormWithDialector opens and pings an arbitrary dialector.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	return open(dial, logger.Warn)
}

func open(dial gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(level),
		// pinged once below, with the driver name in the error
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", dial.Name(), err)
	}
	return db, nil
}
