// Package store is the pgx-backed persistence layer. Conditional
// updates encode the state machines directly in their WHERE clauses, so
// illegal transitions lose the update race instead of corrupting state.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NextOrderNumber atomically increments the named counter and returns
// the new value. The row update serializes concurrent admissions, so no
// two orders can observe the same sequence number.
func (s *Store) NextOrderNumber(ctx context.Context) (int64, error) {
	var seq int64
	err := s.pool.QueryRow(ctx, `
		insert into counters (name, seq) values ('order', 1)
		on conflict (name) do update set seq = counters.seq + 1
		returning seq
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("increment order counter: %w", err)
	}
	return seq, nil
}
