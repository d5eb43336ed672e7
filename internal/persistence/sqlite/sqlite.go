// Package sqlite stores club members, schedules and participation rows in
// SQLite through the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"log/slog"
)

// Storage bundles the repositories that share one connection pool.
type Storage struct {
	*UserRepository
	*ScheduleRepository
	*ParticipantRepository

	pool *ConnectionPool
}

// Open connects to the database identified by dsn. Callers run Migrate
// before serving requests.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Storage{
		UserRepository:        NewUserRepository(pool),
		ScheduleRepository:    NewScheduleRepository(pool),
		ParticipantRepository: NewParticipantRepository(pool),
		pool:                  pool,
	}, nil
}

// Migrate applies pending schema migrations.
func (s *Storage) Migrate(ctx context.Context, logger *slog.Logger) error {
	return s.pool.Migrate(ctx, logger)
}

// Ping checks database connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
