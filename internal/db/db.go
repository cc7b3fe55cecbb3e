package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tradejournal/internal/config"
)

type DB struct {
	Gorm *gorm.DB
	SQL  *sql.DB

	driver string
}

func Open(cfg config.DBConfig) (*DB, error) {
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	var dialector gorm.Dialector
	switch driver {
	case "", "postgres":
		driver = "postgres"
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, err
	}

	sqldb, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		// sqlite allows a single writer; serialize through one connection.
		sqldb.SetMaxOpenConns(1)
	} else {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	return &DB{Gorm: gdb, SQL: sqldb, driver: driver}, nil
}

func Close(db *DB) error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}

func Ping(db *DB) error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Ping()
}

func SetTimezone(db *DB, tz string) error {
	if tz == "" || db == nil || db.driver != "postgres" {
		return nil
	}
	_, err := db.SQL.Exec("SET TIME ZONE '" + tz + "'")
	return err
}

func NowUTC() time.Time {
	return time.Now().UTC()
}
