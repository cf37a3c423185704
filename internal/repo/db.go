// Package repo is the GORM persistence layer for RFQs, quotations and
// idempotency records. Functions take the *gorm.DB to run on, so services can
// pass either the pool or an open transaction.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-rfq-backend/internal/domain"
)

// Supported values for the driver argument of Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Connection pool limits for postgres.
const (
	pgMaxOpen     = 20
	pgMaxIdle     = 10
	pgIdleTimeout = 5 * time.Minute
	pgMaxLifetime = 30 * time.Minute
)

// sqlitePragmas run once on the single pooled connection. WAL is left out for
// in-memory databases, which have no journal file.
var sqlitePragmas = []string{
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// pendingQuotationIndex backs "one pending quotation per vendor per RFQ".
// Both sqlite and postgres accept partial indexes.
const pendingQuotationIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ux_quotations_rfq_vendor_pending
	ON quotations (rfq_id, vendor_id) WHERE status = 'pending'`

// Open connects to driver ("sqlite" by default, or "postgres") and installs
// the GORM tracing plugin. For sqlite dsn is a file path or an in-memory DSN;
// for postgres it is a connection URL or key=value string.
func Open(driver, dsn string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch d := strings.ToLower(strings.TrimSpace(driver)); d {
	case DriverSQLite, "":
		db, err = OpenSQLite(dsn)
	case DriverPostgres:
		db, err = OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("install tracing: %w", err)
	}
	return db, nil
}

// OpenSQLite opens or creates the sqlite database at path.
//
// The pool holds exactly one connection, which is never recycled. sqlite has
// a single writer, so this serializes every RFQ transaction the way
// SELECT ... FOR UPDATE does on postgres.
func OpenSQLite(path string) (*gorm.DB, error) {
	mem := isMemoryDSN(path)
	if !mem {
		// sqlite reports a missing directory as "out of memory (14)".
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, err
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxIdleTime(0)
	sqlDB.SetConnMaxLifetime(0)

	pragmas := sqlitePragmas
	if !mem {
		pragmas = append([]string{"PRAGMA journal_mode=WAL"}, pragmas...)
	}
	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return db, nil
}

// OpenPostgres opens a postgres database through pgx.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(pgMaxOpen)
	sqlDB.SetMaxIdleConns(pgMaxIdle)
	sqlDB.SetConnMaxIdleTime(pgIdleTimeout)
	sqlDB.SetConnMaxLifetime(pgMaxLifetime)
	return db, nil
}

// AutoMigrate creates or updates the schema. It is safe to run on every
// start.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.RFQ{}, &domain.Quotation{}, &domain.QuotationRevision{}, &domain.Idempotency{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := db.Exec(pendingQuotationIndex).Error; err != nil {
		return fmt.Errorf("create pending quotation index: %w", err)
	}
	return nil
}

func isMemoryDSN(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
