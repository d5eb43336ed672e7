package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/club-scheduler/internal/participation"
)

// clubStoreStub is an in-memory implementation of every repository the
// services depend on.
type clubStoreStub struct {
	mu           sync.Mutex
	nextUserID   int64
	nextSchedule int64
	users        map[int64]User
	schedules    map[int64]Schedule
	participants map[int64][]Participant

	getUserCalls int
	failWith     error
}

func newClubStoreStub() *clubStoreStub {
	return &clubStoreStub{
		users:        make(map[int64]User),
		schedules:    make(map[int64]Schedule),
		participants: make(map[int64][]Participant),
	}
}

func (s *clubStoreStub) seedUser(user User) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	user.ID = s.nextUserID
	s.users[user.ID] = user
	return user
}

func (s *clubStoreStub) CreateUser(_ context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return User{}, s.failWith
	}
	for _, existing := range s.users {
		if existing.Phone == user.Phone {
			return User{}, ErrConflict
		}
	}
	first := len(s.users) == 0
	user.IsAdmin = first
	user.IsApproved = first
	s.nextUserID++
	user.ID = s.nextUserID
	s.users[user.ID] = user
	return user, nil
}

func (s *clubStoreStub) GetUser(_ context.Context, id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getUserCalls++
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *clubStoreStub) GetUserByPhone(_ context.Context, phone string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Phone == phone {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *clubStoreStub) UpdateUser(_ context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return User{}, ErrNotFound
	}
	for id, existing := range s.users {
		if id != user.ID && existing.Phone == user.Phone {
			return User{}, ErrConflict
		}
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *clubStoreStub) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	for sid, rows := range s.participants {
		s.participants[sid] = removeParticipantRow(rows, id)
	}
	return nil
}

func (s *clubStoreStub) ListUsers(_ context.Context) ([]User, error) {
	return s.filterUsers(func(User) bool { return true }), nil
}

func (s *clubStoreStub) ListPendingUsers(_ context.Context) ([]User, error) {
	return s.filterUsers(func(u User) bool { return !u.IsApproved }), nil
}

func (s *clubStoreStub) filterUsers(keep func(User) bool) []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []User{}
	for _, user := range s.users {
		if keep(user) {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *clubStoreStub) SetApproval(_ context.Context, id int64, approved bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.IsApproved = approved
	user.UpdatedAt = at
	s.users[id] = user
	return nil
}

func (s *clubStoreStub) CreateSchedule(_ context.Context, schedule Schedule) (Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return Schedule{}, s.failWith
	}
	s.nextSchedule++
	schedule.ID = s.nextSchedule
	if creator, ok := s.users[schedule.CreatedBy]; ok {
		schedule.CreatedByName = creator.Name
	}
	s.schedules[schedule.ID] = schedule
	return schedule, nil
}

func (s *clubStoreStub) GetSchedule(_ context.Context, id int64) (Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule, ok := s.schedules[id]
	if !ok {
		return Schedule{}, ErrNotFound
	}
	return s.withCounts(schedule), nil
}

func (s *clubStoreStub) UpdateSchedule(_ context.Context, schedule Schedule) (Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[schedule.ID]; !ok {
		return Schedule{}, ErrNotFound
	}
	s.schedules[schedule.ID] = schedule
	return s.withCounts(schedule), nil
}

func (s *clubStoreStub) DeleteSchedule(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[id]; !ok {
		return ErrNotFound
	}
	delete(s.schedules, id)
	delete(s.participants, id)
	return nil
}

func (s *clubStoreStub) ListSchedules(_ context.Context, from, to string) ([]Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Schedule{}
	for _, schedule := range s.schedules {
		if schedule.Date >= from && schedule.Date <= to {
			out = append(out, s.withCounts(schedule))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *clubStoreStub) withCounts(schedule Schedule) Schedule {
	rows := s.participants[schedule.ID]
	schedule.ParticipantCount = len(rows)
	schedule.ConfirmedCount = 0
	for _, row := range rows {
		if row.Status == participation.StatusAttending {
			schedule.ConfirmedCount++
		}
	}
	return schedule
}

func (s *clubStoreStub) UpsertParticipant(_ context.Context, scheduleID, userID int64, status participation.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.participants[scheduleID]
	for i := range rows {
		if rows[i].UserID == userID {
			rows[i].Status = status
			rows[i].UpdatedAt = at
			return nil
		}
	}
	user := s.users[userID]
	s.participants[scheduleID] = append(rows, Participant{
		UserID:    userID,
		UserName:  user.Name,
		UserPhone: user.Phone,
		Status:    status,
		CreatedAt: at,
		UpdatedAt: at,
	})
	return nil
}

func (s *clubStoreStub) DeleteParticipant(_ context.Context, scheduleID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.participants[scheduleID]
	remaining := removeParticipantRow(rows, userID)
	s.participants[scheduleID] = remaining
	return len(remaining) != len(rows), nil
}

func (s *clubStoreStub) ListParticipants(_ context.Context, scheduleID int64) ([]Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Participant(nil), s.participants[scheduleID]...), nil
}

func (s *clubStoreStub) ListUserParticipations(_ context.Context, userID int64) ([]MyParticipation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []MyParticipation
	for sid, rows := range s.participants {
		for _, row := range rows {
			if row.UserID == userID {
				out = append(out, MyParticipation{Schedule: s.withCounts(s.schedules[sid]), Status: row.Status})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *clubStoreStub) statusOf(scheduleID, userID int64) (participation.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.participants[scheduleID] {
		if row.UserID == userID {
			return row.Status, true
		}
	}
	return "", false
}

func removeParticipantRow(rows []Participant, userID int64) []Participant {
	out := rows[:0:0]
	for _, row := range rows {
		if row.UserID != userID {
			out = append(out, row)
		}
	}
	return out
}

type invalidatorStub struct {
	mu        sync.Mutex
	forgotten []int64
}

func (i *invalidatorStub) Forget(userID int64) {
	i.mu.Lock()
	i.forgotten = append(i.forgotten, userID)
	i.mu.Unlock()
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func stringPtr(value string) *string {
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}
