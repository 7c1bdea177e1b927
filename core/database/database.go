package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"blog/core/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Database wraps the gorm connection
type Database struct {
	DB *gorm.DB
}

// InitDB opens the database selected by DB_DRIVER
func InitDB(cfg *config.Config) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := gormLogger.Warn
	if cfg.IsProduction() {
		logLevel = gormLogger.Error
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if strings.ToLower(cfg.DBDriver) == "sqlite" {
		// sqlite serializes writers, more connections only produce "database is locked"
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return &Database{DB: db}, nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.DBDriver) {
	case "sqlite":
		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.Open(cfg.DBPath), nil
	case "mysql":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required for mysql")
		}
		return mysql.Open(cfg.DBURL), nil
	case "postgres", "postgresql":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required for postgres")
		}
		return postgres.Open(cfg.DBURL), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DBDriver)
	}
}

// Close closes the underlying connection pool
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
