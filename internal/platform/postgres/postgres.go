package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type options struct {
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	pingTimeout     time.Duration
	logLevel        gormlogger.LogLevel
}

// Option tunes the connection pool.
type Option func(*options)

// WithPool sets pool limits. Zero values keep the database/sql defaults.
func WithPool(maxOpen, maxIdle int, lifetime time.Duration) Option {
	return func(o *options) {
		o.maxOpenConns = maxOpen
		o.maxIdleConns = maxIdle
		o.connMaxLifetime = lifetime
	}
}

// WithPingTimeout bounds the connectivity check done by Connect.
func WithPingTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pingTimeout = d
		}
	}
}

// WithLogLevel sets the GORM statement logger level.
func WithLogLevel(level gormlogger.LogLevel) Option {
	return func(o *options) { o.logLevel = level }
}

// Connect opens a PostgreSQL connection via GORM with translated driver
// errors (duplicate keys surface as gorm.ErrDuplicatedKey) and verifies
// connectivity.
func Connect(ctx context.Context, dsn string, opts ...Option) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres DSN is empty")
	}
	cfg := options{pingTimeout: 5 * time.Second, logLevel: gormlogger.Warn}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(cfg.logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap postgres pool: %w", err)
	}
	if cfg.maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.maxOpenConns)
	}
	if cfg.maxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.maxIdleConns)
	}
	if cfg.connMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.connMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
