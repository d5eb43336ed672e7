package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ScheduleRepository captures the persistence interactions needed by the schedule service.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	GetSchedule(ctx context.Context, id int64) (Schedule, error)
	UpdateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	DeleteSchedule(ctx context.Context, id int64) error
	// ListSchedules returns the schedules dated within [from, to], both YYYY-MM-DD,
	// ordered by date and start time.
	ListSchedules(ctx context.Context, from, to string) ([]Schedule, error)
}

// ParticipantLister reads the participation rows of a schedule in arrival order.
type ParticipantLister interface {
	ListParticipants(ctx context.Context, scheduleID int64) ([]Participant, error)
}

// ScheduleService orchestrates validation and persistence for schedule operations.
type ScheduleService struct {
	schedules    ScheduleRepository
	participants ParticipantLister
	location     *time.Location
	now          func() time.Time
	logger       *slog.Logger
}

// NewScheduleService wires dependencies for schedule operations.
func NewScheduleService(schedules ScheduleRepository, participants ParticipantLister, now func() time.Time) *ScheduleService {
	return NewScheduleServiceWithLogger(schedules, participants, nil, now, nil)
}

// NewScheduleServiceWithLogger wires dependencies for schedule operations with a
// specified logger. location selects the calendar used for the default month.
func NewScheduleServiceWithLogger(schedules ScheduleRepository, participants ParticipantLister, location *time.Location, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{
		schedules:    schedules,
		participants: participants,
		location:     location,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *ScheduleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleService", operation, attrs...)
}

// ListSchedules returns the schedules of one calendar month.
func (s *ScheduleService) ListSchedules(ctx context.Context, params ListSchedulesParams) ([]Schedule, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return nil, fmt.Errorf("schedule repository not configured")
	}
	if err := requireMember(params.Principal); err != nil {
		return nil, err
	}

	from, to, err := s.monthRange(params.Year, params.Month)
	if err != nil {
		return nil, err
	}

	schedules, err := s.schedules.ListSchedules(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if schedules == nil {
		schedules = []Schedule{}
	}
	return schedules, nil
}

// monthRange resolves the inclusive date bounds of the requested month,
// defaulting missing parts to the current month.
func (s *ScheduleService) monthRange(year int, month time.Month) (string, string, error) {
	current := s.now().In(s.location)
	if year == 0 {
		year = current.Year()
	}
	if month == 0 {
		month = current.Month()
	}

	vErr := &ValidationError{}
	if year < 1 || year > 9999 {
		vErr.add("year", "year is invalid")
	}
	if month < time.January || month > time.December {
		vErr.add("month", "month is invalid")
	}
	if vErr.HasErrors() {
		return "", "", vErr
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(dateLayout), last.Format(dateLayout), nil
}

// GetSchedule returns a schedule with its participants and rendered description.
func (s *ScheduleService) GetSchedule(ctx context.Context, principal Principal, scheduleID int64) (ScheduleDetail, error) {
	if s == nil {
		return ScheduleDetail{}, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return ScheduleDetail{}, fmt.Errorf("schedule repository not configured")
	}
	if err := requireMember(principal); err != nil {
		return ScheduleDetail{}, err
	}

	schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return ScheduleDetail{}, err
	}

	detail := ScheduleDetail{
		Schedule:        schedule,
		DescriptionHTML: renderDescription(schedule.Description),
		Participants:    []Participant{},
	}
	if s.participants != nil {
		participants, err := s.participants.ListParticipants(ctx, scheduleID)
		if err != nil {
			return ScheduleDetail{}, err
		}
		if participants != nil {
			detail.Participants = participants
		}
	}
	return detail, nil
}

// CreateSchedule validates the request before delegating to persistence.
func (s *ScheduleService) CreateSchedule(ctx context.Context, params CreateScheduleParams) (schedule Schedule, err error) {
	if s == nil {
		err = fmt.Errorf("ScheduleService is nil")
		return
	}
	if s.schedules == nil {
		err = fmt.Errorf("schedule repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateSchedule", "principal_id", params.Principal.UserID)
	defer func() {
		if err == nil {
			logger = logger.With("schedule_id", schedule.ID, "date", schedule.Date)
		}
		logOutcome(ctx, logger, err, "schedule created")
	}()

	if err = requireMember(params.Principal); err != nil {
		return
	}

	vErr := &ValidationError{}
	input := normalizeScheduleInput(params.Input, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	schedule, err = s.schedules.CreateSchedule(ctx, Schedule{
		Title:          input.Title,
		Description:    input.Description,
		Date:           input.Date,
		StartTime:      input.StartTime,
		EndTime:        input.EndTime,
		Location:       input.Location,
		LocationDetail: input.LocationDetail,
		CreatedBy:      params.Principal.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	return
}

// UpdateSchedule applies validation and authorization before updating persistence state.
// Only the creator or an administrator may edit a schedule.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, params UpdateScheduleParams) (schedule Schedule, err error) {
	if s == nil {
		err = fmt.Errorf("ScheduleService is nil")
		return
	}
	if s.schedules == nil {
		err = fmt.Errorf("schedule repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSchedule", "principal_id", params.Principal.UserID, "schedule_id", params.ScheduleID)
	defer func() {
		logOutcome(ctx, logger, err, "schedule updated")
	}()

	var existing Schedule
	existing, err = s.authorizeOwner(ctx, params.Principal, params.ScheduleID)
	if err != nil {
		return
	}

	vErr := &ValidationError{}
	input := normalizeScheduleInput(params.Input, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Title = input.Title
	updated.Description = input.Description
	updated.Date = input.Date
	updated.StartTime = input.StartTime
	updated.EndTime = input.EndTime
	updated.Location = input.Location
	updated.LocationDetail = input.LocationDetail
	updated.UpdatedAt = s.now()

	schedule, err = s.schedules.UpdateSchedule(ctx, updated)
	return
}

// DeleteSchedule removes a schedule and, through the store, its participation rows.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, principal Principal, scheduleID int64) (err error) {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return fmt.Errorf("schedule repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteSchedule", "principal_id", principal.UserID, "schedule_id", scheduleID)
	defer func() {
		logOutcome(ctx, logger, err, "schedule deleted")
	}()

	if _, err = s.authorizeOwner(ctx, principal, scheduleID); err != nil {
		return
	}
	err = s.schedules.DeleteSchedule(ctx, scheduleID)
	return
}

func (s *ScheduleService) authorizeOwner(ctx context.Context, principal Principal, scheduleID int64) (Schedule, error) {
	if err := requireMember(principal); err != nil {
		return Schedule{}, err
	}
	existing, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return Schedule{}, err
	}
	if existing.CreatedBy != principal.UserID && !principal.IsAdmin {
		return Schedule{}, ErrForbidden
	}
	return existing, nil
}
