package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// Config implements shellq.ConfigStore using a bun-backed SQL store.
type Config struct {
	db *bun.DB
}

// NewConfig creates a new bun-backed ConfigStore.
func NewConfig(db *bun.DB) *Config {
	return &Config{db: db}
}

// Get returns the raw string value for key, and whether it was set.
func (c *Config) Get(ctx context.Context, key string) (string, bool, error) {
	var model configModel
	err := c.db.NewSelect().
		Model(&model).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return model.Value, true, nil
}

// Set stores value under key, overwriting any existing value.
func (c *Config) Set(ctx context.Context, key, value string) error {
	_, err := c.db.NewInsert().
		Model(&configModel{Key: key, Value: value}).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	return err
}
