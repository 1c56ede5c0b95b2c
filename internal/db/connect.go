package db

import (
	"fmt"  // Error wrapping
	"time" // Pool lifetimes

	"loyalty_points/internal/config" // Driver names

	"gorm.io/driver/mysql"           // MySQL driver for GORM
	"gorm.io/driver/postgres"        // PostgreSQL driver for GORM
	"gorm.io/driver/sqlite"          // SQLite driver for GORM
	"gorm.io/gorm"                   // GORM ORM library
	gormlogger "gorm.io/gorm/logger" // GORM logger
)

// Connect opens a GORM connection for the given driver and DSN
func Connect(driver, dsn string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverMySQL:
		dialector = mysql.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	logLevel := gormlogger.Error // Only log failing queries unless debugging
	if debug {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true, // Surface unique violations as gorm.ErrDuplicatedKey
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1) // SQLite serializes writers anyway
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return db, nil
}
