package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/navoditbharat/mapsketch/internal/core/ports"
	"github.com/navoditbharat/mapsketch/internal/pkg/metrics"
)

const driver = "postgres"

// StateRepo implements ports.StateStore on the state_slots table.
type StateRepo struct {
	db *DB
}

// NewStateRepo creates a new StateRepo.
func NewStateRepo(db *DB) *StateRepo {
	return &StateRepo{db: db}
}

// Get returns the slot payload.
func (r *StateRepo) Get(ctx context.Context, key string) ([]byte, error) {
	defer metrics.ObserveStore(driver, "get", time.Now())

	var value []byte
	err := r.db.Pool.QueryRow(ctx, `SELECT value FROM state_slots WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select slot %s: %w", key, err)
	}
	return value, nil
}

// Set upserts the slot payload. value must be a JSON document.
func (r *StateRepo) Set(ctx context.Context, key string, value []byte) error {
	defer metrics.ObserveStore(driver, "set", time.Now())

	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO state_slots (key, value, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("upsert slot %s: %w", key, err)
	}
	return nil
}

// Delete removes the slot.
func (r *StateRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM state_slots WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity and refreshes pool metrics.
func (r *StateRepo) Ping(ctx context.Context) error {
	r.db.ReportPoolStats()
	return r.db.Pool.Ping(ctx)
}
