// Package journal persists an audit trail of notification deliveries.
package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"polynotify/config"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Client struct {
	DB *gorm.DB
}

// NewClient opens a gorm connection through dialector.
func NewClient(dialector gorm.Dialector) (*Client, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	return &Client{DB: db}, nil
}

// Open connects to the configured journal backend and runs AutoMigrate.
func Open(cfg config.JournalConfig, env string) (*Client, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case config.JournalDriverPostgres:
		if cfg.CreateDatabase {
			if err := CreateDatabase(cfg.Postgres); err != nil {
				return nil, fmt.Errorf("failed to create database: %w", err)
			}
		}
		dialector = postgres.Open(cfg.Postgres.DSN(env))

	case config.JournalDriverSQLite, "":
		// Create parent directory if it doesn't exist
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create journal directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.SQLitePath)

	default:
		return nil, fmt.Errorf("unknown journal driver %q", cfg.Driver)
	}

	client, err := NewClient(dialector)
	if err != nil {
		return nil, err
	}

	if err := client.configurePool(cfg.Postgres); err != nil {
		return nil, err
	}

	if err := client.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (c *Client) configurePool(cfg config.PostgresConfig) error {
	db, err := c.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return nil
}

func (c *Client) AutoMigrate() error {
	if err := c.DB.AutoMigrate(&DeliveryRecord{}); err != nil {
		return fmt.Errorf("auto-migrate delivery table: %w", err)
	}
	return nil
}

func (c *Client) IsHealthy(ctx context.Context) bool {
	db, err := c.DB.DB()
	if err != nil {
		return false
	}
	return db.PingContext(ctx) == nil
}

func (c *Client) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	return db.Close()
}
