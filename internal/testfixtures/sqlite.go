package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/club-scheduler/internal/logging"
	"github.com/example/club-scheduler/internal/persistence"
	"github.com/example/club-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite storage
// instance for integration-style tests.
type SQLiteHarness struct {
	Storage      *sqlite.Storage
	Users        persistence.UserRepository
	Schedules    persistence.ScheduleRepository
	Participants persistence.ParticipantRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	ctx := context.Background()
	path := filepath.Join(tb.TempDir(), "club.db")

	storage, err := sqlite.Open(ctx, path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(ctx, logging.Discard()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:      storage,
		Users:        storage,
		Schedules:    storage,
		Participants: storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// CreateMember stores the fixture and returns the persisted row. The first
// member stored in a harness always becomes an approved administrator.
func (h *SQLiteHarness) CreateMember(tb testing.TB, fixture MemberFixture) persistence.User {
	tb.Helper()

	user, err := h.Users.CreateUser(context.Background(), fixture.Persistence())
	if err != nil {
		tb.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

// CreateSchedule stores the fixture and returns the persisted row.
func (h *SQLiteHarness) CreateSchedule(tb testing.TB, fixture ScheduleFixture) persistence.Schedule {
	tb.Helper()

	schedule, err := h.Schedules.CreateSchedule(context.Background(), fixture.Persistence())
	if err != nil {
		tb.Fatalf("CreateSchedule failed: %v", err)
	}
	return schedule
}
