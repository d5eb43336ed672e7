package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/club-scheduler/internal/persistence"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "club.db")
	storage, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}

	t.Cleanup(func() {
		_ = storage.Close()
	})

	if err := storage.Migrate(ctx, nil); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return storage
}

func mustCreateUser(t *testing.T, storage *Storage, name, phone string) persistence.User {
	t.Helper()

	user, err := storage.CreateUser(context.Background(), persistence.User{Name: name, Phone: phone})
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", name, err)
	}
	return user
}

func mustCreateSchedule(t *testing.T, storage *Storage, creator int64, date, start, end string) persistence.Schedule {
	t.Helper()

	schedule, err := storage.CreateSchedule(context.Background(), persistence.Schedule{
		Title:     "Doubles " + date,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		CreatedBy: creator,
	})
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}
	return schedule
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	if err := storage.Migrate(ctx, nil); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	migrations, err := LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations failed: %v", err)
	}
	if len(migrations) < 2 {
		t.Fatalf("expected embedded migrations, got %d", len(migrations))
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i-1].Version >= migrations[i].Version {
			t.Fatalf("migrations not ordered: %s before %s", migrations[i-1].Version, migrations[i].Version)
		}
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	first := mustCreateUser(t, storage, "Kim", "010-1234-5678")
	if !first.IsAdmin || !first.IsApproved {
		t.Fatalf("first member must be approved administrator: %#v", first)
	}

	second := mustCreateUser(t, storage, "Lee", "010-2222-3333")
	if second.IsAdmin || second.IsApproved {
		t.Fatalf("later members must start pending: %#v", second)
	}

	if _, err := storage.CreateUser(ctx, persistence.User{Name: "Park", Phone: "010-2222-3333"}); !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate phone, got %v", err)
	}

	byPhone, err := storage.GetUserByPhone(ctx, "010-2222-3333")
	if err != nil {
		t.Fatalf("GetUserByPhone failed: %v", err)
	}
	if byPhone.ID != second.ID {
		t.Fatalf("expected user %d, got %d", second.ID, byPhone.ID)
	}

	pending, err := storage.ListPendingUsers(ctx)
	if err != nil {
		t.Fatalf("ListPendingUsers failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("unexpected pending users: %#v", pending)
	}

	if err := storage.SetApproval(ctx, second.ID, true, time.Now()); err != nil {
		t.Fatalf("SetApproval failed: %v", err)
	}
	pending, err = storage.ListPendingUsers(ctx)
	if err != nil {
		t.Fatalf("ListPendingUsers failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending users, got %#v", pending)
	}

	second.Name = "Lee Updated"
	second.IsAdmin = true
	updated, err := storage.UpdateUser(ctx, second)
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if updated.Name != "Lee Updated" || !updated.IsAdmin || !updated.IsApproved {
		t.Fatalf("unexpected updated user: %#v", updated)
	}

	users, err := storage.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 || users[0].ID != first.ID {
		t.Fatalf("unexpected user list: %#v", users)
	}

	if err := storage.DeleteUser(ctx, second.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := storage.GetUser(ctx, second.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := storage.DeleteUser(ctx, second.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
	if err := storage.SetApproval(ctx, 999, true, time.Now()); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestScheduleRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	creator := mustCreateUser(t, storage, "Kim", "010-1234-5678")
	early := mustCreateSchedule(t, storage, creator.ID, "2024-05-03", "07:00", "09:00")
	later := mustCreateSchedule(t, storage, creator.ID, "2024-05-01", "18:00", "20:00")
	mustCreateSchedule(t, storage, creator.ID, "2024-06-01", "18:00", "20:00")

	listed, err := storage.ListSchedules(ctx, persistence.ScheduleRange{From: "2024-05-01", To: "2024-05-31"})
	if err != nil {
		t.Fatalf("ListSchedules failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 schedules in May, got %d", len(listed))
	}
	if listed[0].ID != later.ID || listed[1].ID != early.ID {
		t.Fatalf("expected date ordering, got %d then %d", listed[0].ID, listed[1].ID)
	}
	if listed[0].CreatedByName != "Kim" {
		t.Fatalf("expected creator name, got %q", listed[0].CreatedByName)
	}

	location := "Olympic Park Court 3"
	early.Title = "Singles"
	early.Location = &location
	updated, err := storage.UpdateSchedule(ctx, early)
	if err != nil {
		t.Fatalf("UpdateSchedule failed: %v", err)
	}
	if updated.Title != "Singles" || updated.Location == nil || *updated.Location != location {
		t.Fatalf("unexpected updated schedule: %#v", updated)
	}
	if updated.CreatedBy != creator.ID {
		t.Fatalf("creator must be kept, got %d", updated.CreatedBy)
	}

	_, err = storage.CreateSchedule(ctx, persistence.Schedule{
		Title: "Broken", Date: "2024-05-04", StartTime: "10:00", EndTime: "09:00", CreatedBy: creator.ID,
	})
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for inverted times, got %v", err)
	}

	if err := storage.DeleteSchedule(ctx, early.ID); err != nil {
		t.Fatalf("DeleteSchedule failed: %v", err)
	}
	if _, err := storage.GetSchedule(ctx, early.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParticipantRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	kim := mustCreateUser(t, storage, "Kim", "010-1234-5678")
	lee := mustCreateUser(t, storage, "Lee", "010-2222-3333")
	schedule := mustCreateSchedule(t, storage, kim.ID, "2024-05-03", "07:00", "09:00")

	if err := storage.UpsertParticipant(ctx, schedule.ID, lee.ID, "undecided", time.Now()); err != nil {
		t.Fatalf("UpsertParticipant failed: %v", err)
	}
	if err := storage.UpsertParticipant(ctx, schedule.ID, kim.ID, "attending", time.Now()); err != nil {
		t.Fatalf("UpsertParticipant failed: %v", err)
	}
	if err := storage.UpsertParticipant(ctx, schedule.ID, lee.ID, "attending", time.Now()); err != nil {
		t.Fatalf("UpsertParticipant overwrite failed: %v", err)
	}

	participants, err := storage.ListParticipants(ctx, schedule.ID)
	if err != nil {
		t.Fatalf("ListParticipants failed: %v", err)
	}
	if len(participants) != 2 {
		t.Fatalf("expected one row per member, got %d", len(participants))
	}
	if participants[0].UserID != lee.ID || participants[0].Status != "attending" {
		t.Fatalf("overwrite must keep arrival order and update status: %#v", participants[0])
	}

	summary, err := storage.GetSchedule(ctx, schedule.ID)
	if err != nil {
		t.Fatalf("GetSchedule failed: %v", err)
	}
	if summary.ParticipantCount != 2 || summary.ConfirmedCount != 2 {
		t.Fatalf("unexpected counts: %d/%d", summary.ParticipantCount, summary.ConfirmedCount)
	}

	if err := storage.UpsertParticipant(ctx, schedule.ID, kim.ID, "maybe", time.Now()); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for unknown status, got %v", err)
	}

	mine, err := storage.ListUserParticipations(ctx, lee.ID)
	if err != nil {
		t.Fatalf("ListUserParticipations failed: %v", err)
	}
	if len(mine) != 1 || mine[0].Status != "attending" || mine[0].CreatedByName != "Kim" {
		t.Fatalf("unexpected participations: %#v", mine)
	}

	removed, err := storage.DeleteParticipant(ctx, schedule.ID, lee.ID)
	if err != nil || !removed {
		t.Fatalf("DeleteParticipant = %v, %v", removed, err)
	}
	removed, err = storage.DeleteParticipant(ctx, schedule.ID, lee.ID)
	if err != nil || removed {
		t.Fatalf("second DeleteParticipant = %v, %v", removed, err)
	}

	if err := storage.DeleteSchedule(ctx, schedule.ID); err != nil {
		t.Fatalf("DeleteSchedule failed: %v", err)
	}
	mine, err = storage.ListUserParticipations(ctx, kim.ID)
	if err != nil {
		t.Fatalf("ListUserParticipations failed: %v", err)
	}
	if len(mine) != 0 {
		t.Fatalf("participation rows must cascade with the schedule, got %#v", mine)
	}
}

func TestDeleteUserKeepsCreatedSchedules(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	admin := mustCreateUser(t, storage, "Kim", "010-1234-5678")
	member := mustCreateUser(t, storage, "Lee", "010-2222-3333")
	schedule := mustCreateSchedule(t, storage, member.ID, "2024-05-03", "07:00", "09:00")
	if err := storage.UpsertParticipant(ctx, schedule.ID, member.ID, "attending", time.Now()); err != nil {
		t.Fatalf("UpsertParticipant failed: %v", err)
	}

	if err := storage.DeleteUser(ctx, member.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	summary, err := storage.GetSchedule(ctx, schedule.ID)
	if err != nil {
		t.Fatalf("schedule must survive creator deletion: %v", err)
	}
	if summary.CreatedBy != 0 || summary.CreatedByName != "" || summary.ParticipantCount != 0 {
		t.Fatalf("unexpected summary after creator deletion: %#v", summary)
	}
	_ = admin
}
