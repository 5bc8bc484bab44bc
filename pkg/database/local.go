package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteDatabase opens a file-backed SQLite database for local development.
func NewSQLiteDatabase(path string, debug bool) (*GormDatabase, error) {
	if path == "" {
		path = "venue-crm.db"
	}
	db, err := gorm.Open(sqlite.Open(sqliteDSN("file:"+path)), gormConfig(debug))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	return NewFromGorm(db), nil
}

// NewInMemoryDatabase opens a named shared in-memory SQLite database and migrates it.
func NewInMemoryDatabase(name string) (*GormDatabase, error) {
	dsn := sqliteDSN("file:" + strings.ReplaceAll(name, "/", "_") + "?mode=memory&cache=shared")
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(false))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory sqlite: %w", err)
	}
	// One connection keeps every statement on the same in-memory database.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return NewFromGorm(db), nil
}

func sqliteDSN(base string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "_foreign_keys=on&_busy_timeout=5000"
}
