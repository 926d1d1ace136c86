package sqlite

import (
	"context"
	"fmt"
)

// CounterRepository implements persistence.CounterRepository on SQLite.
type CounterRepository struct {
	pool *ConnectionPool
}

// NewCounterRepository creates a SQLite counter repository.
func NewCounterRepository(pool *ConnectionPool) *CounterRepository {
	return &CounterRepository{pool: pool}
}

// NextSequence atomically increments and returns the named counter. The
// upsert runs as a single statement, so concurrent callers never observe
// the same value.
func (r *CounterRepository) NextSequence(ctx context.Context, name string) (int64, error) {
	var value int64
	err := r.pool.DB().QueryRowContext(ctx, `
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value
	`, name).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("next sequence %q: %w", name, err)
	}
	return value, nil
}
