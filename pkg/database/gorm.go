package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"venue-crm-backend/pkg/config"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const maxSerializableAttempts = 3

// GormDatabase implements DatabaseInterface on top of gorm.
type GormDatabase struct {
	db     *gorm.DB
	driver string
}

// NewPostgresDatabase connects through lib/pq.
func NewPostgresDatabase(cfg DatabaseConfig) (*GormDatabase, error) {
	dialector := postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        cfg.DSN,
	})
	return open(dialector, DriverPostgres, cfg)
}

// NewMySQLDatabase connects through go-sql-driver/mysql.
func NewMySQLDatabase(cfg DatabaseConfig) (*GormDatabase, error) {
	return open(mysql.Open(cfg.DSN), DriverMySQL, cfg)
}

func open(dialector gorm.Dialector, driver string, cfg DatabaseConfig) (*GormDatabase, error) {
	db, err := gorm.Open(dialector, gormConfig(cfg.Debug))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	config.GetLogger().WithField("driver", driver).Info("database connected")
	return &GormDatabase{db: db, driver: driver}, nil
}

// NewFromGorm wraps an existing gorm handle.
func NewFromGorm(db *gorm.DB) *GormDatabase {
	return &GormDatabase{db: db, driver: db.Dialector.Name()}
}

func (d *GormDatabase) DB(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}

func (d *GormDatabase) Driver() string { return d.driver }

func (d *GormDatabase) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.db.WithContext(ctx).Transaction(fn)
}

func (d *GormDatabase) WithSerializableTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	// SQLite already serializes writers and rejects isolation options.
	if d.driver == DriverSQLite {
		return d.WithTransaction(ctx, fn)
	}

	var err error
	for attempt := 1; attempt <= maxSerializableAttempts; attempt++ {
		err = d.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if !isSerializationFailure(err) {
			return err
		}
		config.GetLogger().WithField("attempt", attempt).Warn("serialization failure, retrying transaction")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*20) * time.Millisecond):
		}
	}
	return err
}

func (d *GormDatabase) HealthCheck(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *GormDatabase) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1213 || myErr.Number == 1205
	}
	return false
}
