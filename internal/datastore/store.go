// Package datastore opens the order database, migrates the schema and hands
// out repositories bound to it.
package datastore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/orderlens/internal/conf"
	"github.com/tphakala/orderlens/internal/datastore/entities"
	"github.com/tphakala/orderlens/internal/datastore/repository"
	"github.com/tphakala/orderlens/internal/errors"
	"github.com/tphakala/orderlens/internal/logger"
)

// Dialect names as reported by gorm.Dialector.Name()
const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
)

const sqliteBusyTimeoutMs = 5000

// Store owns the database connection. It is created once at startup and
// passed explicitly to the components that need it.
type Store struct {
	db       *gorm.DB
	location string
	log      logger.Logger
}

// Open connects to the database selected by settings. The schema is not
// touched until Initialize is called.
func Open(settings *conf.DatabaseSettings, log logger.Logger) (*Store, error) {
	if settings == nil {
		return nil, errors.Newf("database settings cannot be nil").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	log = log.Module("datastore")

	gormCfg := &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(log, settings.SlowQueryThreshold),
	}

	if settings.IsSQLite() {
		return openSQLite(settings.SQLite.Path, gormCfg, log)
	}
	return openMySQL(settings, gormCfg, log)
}

func openSQLite(path string, gormCfg *gorm.Config, log logger.Logger) (*Store, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=ON", path, sqliteBusyTimeoutMs)
	if path == ":memory:" {
		dsn = fmt.Sprintf("file::memory:?_busy_timeout=%d&_foreign_keys=ON", sqliteBusyTimeoutMs)
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open SQLite database: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Priority(errors.PriorityCritical).
			Context("path", path).
			Build()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	// SQLite allows one writer; a single connection serialises writes and
	// keeps an in-memory database shared by every statement.
	sqlDB.SetMaxOpenConns(1)

	log.Info("opened database", logger.String("type", DialectSQLite), logger.String("path", path))
	return &Store{db: db, location: path, log: log}, nil
}

func openMySQL(settings *conf.DatabaseSettings, gormCfg *gorm.Config, log logger.Logger) (*Store, error) {
	db, err := gorm.Open(mysql.Open(settings.MySQLDSN()), gormCfg)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open MySQL database: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Priority(errors.PriorityCritical).
			Context("host", settings.MySQL.Host).
			Context("database", settings.MySQL.Database).
			Build()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxOpenConns(settings.MySQL.MaxOpenConns)
	sqlDB.SetMaxIdleConns(settings.MySQL.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(settings.MySQL.ConnMaxLifetime)

	location := fmt.Sprintf("%s:%s/%s", settings.MySQL.Host, settings.MySQL.Port, settings.MySQL.Database)
	log.Info("opened database", logger.String("type", DialectMySQL), logger.String("location", location))
	return &Store{db: db, location: location, log: log}, nil
}

// NewFromDB wraps an existing connection, for tests and tools.
func NewFromDB(db *gorm.DB, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	return &Store{db: db, location: db.Dialector.Name(), log: log.Module("datastore")}
}

// Initialize creates or updates the schema, including the unique indexes the
// canonical resolver depends on.
func (s *Store) Initialize(ctx context.Context) error {
	start := time.Now()
	if err := s.db.WithContext(ctx).AutoMigrate(entities.All()...); err != nil {
		return errors.New(fmt.Errorf("failed to migrate schema: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "auto_migrate").
			Build()
	}
	s.log.Debug("schema migrated", logger.Duration("elapsed", time.Since(start)))
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.New(fmt.Errorf("database ping failed: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("location", s.location).
			Build()
	}
	return nil
}

// DB returns the underlying GORM database.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Dialect returns the active SQL dialect name.
func (s *Store) Dialect() string {
	return s.db.Dialector.Name()
}

// Location returns the database file path or MySQL host/schema.
func (s *Store) Location() string {
	return s.location
}

// Canonical returns a repository for canonical entities and name mappings.
func (s *Store) Canonical() repository.CanonicalRepository {
	return repository.NewCanonicalRepository(s.db)
}

// Orders returns a repository for orders and line items.
func (s *Store) Orders() repository.OrderRepository {
	return repository.NewOrderRepository(s.db)
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}
