package database

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"time"

	"family_ledger/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // Pure Go SQLite driver (no CGO)
)

var DB *sql.DB

// Connect opens the configured backend. Both drivers register with
// database/sql, so everything above this package is backend-agnostic.
func Connect() {
	switch config.AppConfig.StorageDriver {
	case config.StoragePostgres:
		connectPostgres()
	case config.StorageSQLite:
		connectSQLite()
	default:
		log.Fatalf("Unknown storage driver: %q", config.AppConfig.StorageDriver)
	}
}

func connectPostgres() {
	var err error
	DB, err = sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err = DB.Ping(); err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
}

func connectSQLite() {
	dbPath := config.AppConfig.SQLitePath
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatalf("Error creating database directory: %v", err)
	}

	var err error
	DB, err = sql.Open("sqlite", dbPath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}

	// The sqlite file is a single writer; keep the pool at one connection
	// to avoid SQLITE_BUSY under concurrent handlers.
	DB.SetMaxOpenConns(1)

	if err = DB.Ping(); err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
}

func Close() {
	if DB != nil {
		DB.Close()
	}
}
