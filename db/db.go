package db

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"kitai/config"
)

var (
	DB *sql.DB // shared connection pool

	placeholder sq.PlaceholderFormat = sq.Question
)

// Open connects with the given driver and DSN and verifies the connection.
func Open(driver, dsn string) error {
	var err error
	DB, err = sql.Open(driverName(driver), dsn)
	if err != nil {
		return err
	}
	setPlaceholder(driver)
	return DB.Ping()
}

// InitWithConfig opens the pool described by cfg.DB.
func InitWithConfig(cfg *config.Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("database DSN is empty")
	}

	var err error
	DB, err = sql.Open(driverName(cfg.DB.Driver), cfg.DB.DSN)
	if err != nil {
		return err
	}
	setPlaceholder(cfg.DB.Driver)

	maxOpenConns := cfg.DB.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 50
	}

	maxIdleConns := cfg.DB.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 10
	}

	connMaxLifetime := cfg.DB.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 60
	}

	DB.SetMaxOpenConns(maxOpenConns)
	DB.SetMaxIdleConns(maxIdleConns)
	DB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Minute)

	return DB.Ping()
}

// Use installs an already opened pool, mainly for tests.
func Use(conn *sql.DB, driver string) {
	DB = conn
	setPlaceholder(driver)
}

// Builder returns a statement builder bound to the pool with the driver's placeholder style.
func Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(placeholder).RunWith(DB)
}

// IsPostgres reports whether the pool uses $n placeholders.
func IsPostgres() bool {
	return placeholder == sq.Dollar
}

func driverName(driver string) string {
	if driver == "postgres" {
		return "postgres"
	}
	return "mysql"
}

func setPlaceholder(driver string) {
	if driver == "postgres" {
		placeholder = sq.Dollar
		return
	}
	placeholder = sq.Question
}
