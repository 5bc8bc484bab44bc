package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"venue-crm-backend/pkg/config"

	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig selects and tunes the SQL backend.
type DatabaseConfig struct {
	Driver          string
	DSN             string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Debug           bool
}

// DatabaseInterface is what handlers and services see of the database.
type DatabaseInterface interface {
	// DB returns a gorm handle bound to ctx.
	DB(ctx context.Context) *gorm.DB
	// WithTransaction runs fn in one transaction; any error rolls it back.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	// WithSerializableTransaction is WithTransaction at SERIALIZABLE isolation,
	// retried on serialization failures.
	WithSerializableTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Driver() string
	HealthCheck(ctx context.Context) error
	Close() error
}

// ConfigFromApp derives the database settings from the application config.
func ConfigFromApp(cfg *config.Config) DatabaseConfig {
	dbCfg := DatabaseConfig{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DatabaseURL,
		SQLitePath:      cfg.SQLitePath,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		Debug:           cfg.Debug,
	}
	// Each serverless instance holds its own pool, so keep them small.
	if IsServerlessEnvironment() {
		dbCfg.MaxOpenConns = 2
		dbCfg.MaxIdleConns = 1
		dbCfg.ConnMaxLifetime = 60 * time.Second
	}
	return dbCfg
}

// NewDatabase opens the configured backend.
func NewDatabase(cfg DatabaseConfig) (DatabaseInterface, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		return NewPostgresDatabase(cfg)
	case DriverMySQL:
		return NewMySQLDatabase(cfg)
	case DriverSQLite:
		return NewSQLiteDatabase(cfg.SQLitePath, cfg.Debug)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// IsServerlessEnvironment reports whether the process runs as a Vercel function.
func IsServerlessEnvironment() bool {
	return os.Getenv("VERCEL") == "1" || os.Getenv("VERCEL_ENV") != ""
}
