package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/club-scheduler/internal/persistence"
)

const scheduleSummaryQuery = `
	SELECT s.id, s.title, s.description, s.date, s.start_time, s.end_time,
		s.location, s.location_detail, COALESCE(s.created_by, 0), s.created_at, s.updated_at,
		COALESCE(u.name, ''),
		(SELECT COUNT(*) FROM schedule_participants p WHERE p.schedule_id = s.id),
		(SELECT COUNT(*) FROM schedule_participants p WHERE p.schedule_id = s.id AND p.status = 'attending')
	FROM schedules s
	LEFT JOIN users u ON u.id = s.created_by`

// ScheduleRepository implements persistence.ScheduleRepository using SQLite.
type ScheduleRepository struct {
	pool *ConnectionPool
}

// NewScheduleRepository creates a new SQLite schedule repository.
func NewScheduleRepository(pool *ConnectionPool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// CreateSchedule inserts a schedule and returns the stored row.
func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule persistence.Schedule) (persistence.Schedule, error) {
	now := nowUTC(schedule.CreatedAt)

	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO schedules (title, description, date, start_time, end_time, location, location_detail, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		schedule.Title,
		nullableString(schedule.Description),
		schedule.Date,
		schedule.StartTime,
		schedule.EndTime,
		nullableString(schedule.Location),
		nullableString(schedule.LocationDetail),
		schedule.CreatedBy,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return persistence.Schedule{}, mapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Schedule{}, fmt.Errorf("failed to read inserted schedule id: %w", err)
	}
	stored, err := r.GetSchedule(ctx, id)
	if err != nil {
		return persistence.Schedule{}, err
	}
	return stored.Schedule, nil
}

// UpdateSchedule overwrites the editable fields; creator and creation time are kept.
func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, schedule persistence.Schedule) (persistence.Schedule, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE schedules
		SET title = ?, description = ?, date = ?, start_time = ?, end_time = ?,
			location = ?, location_detail = ?, updated_at = ?
		WHERE id = ?`,
		schedule.Title,
		nullableString(schedule.Description),
		schedule.Date,
		schedule.StartTime,
		schedule.EndTime,
		nullableString(schedule.Location),
		nullableString(schedule.LocationDetail),
		formatTime(nowUTC(schedule.UpdatedAt)),
		schedule.ID,
	)
	if err != nil {
		return persistence.Schedule{}, mapError(err)
	}
	if err := requireAffected(result); err != nil {
		return persistence.Schedule{}, err
	}

	stored, err := r.GetSchedule(ctx, schedule.ID)
	if err != nil {
		return persistence.Schedule{}, err
	}
	return stored.Schedule, nil
}

// GetSchedule retrieves a schedule with its creator name and participant counts.
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id int64) (persistence.ScheduleSummary, error) {
	row := r.pool.db.QueryRowContext(ctx, scheduleSummaryQuery+` WHERE s.id = ?`, id)
	return scanScheduleSummary(row)
}

// ListSchedules returns schedules whose date falls inside rng, ordered by date and start time.
func (r *ScheduleRepository) ListSchedules(ctx context.Context, rng persistence.ScheduleRange) ([]persistence.ScheduleSummary, error) {
	query := scheduleSummaryQuery + ` WHERE 1 = 1`
	args := make([]any, 0, 2)
	if rng.From != "" {
		query += ` AND s.date >= ?`
		args = append(args, rng.From)
	}
	if rng.To != "" {
		query += ` AND s.date <= ?`
		args = append(args, rng.To)
	}
	query += ` ORDER BY s.date, s.start_time, s.id`

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var schedules []persistence.ScheduleSummary
	for rows.Next() {
		summary, err := scanScheduleSummary(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return schedules, nil
}

// DeleteSchedule removes a schedule; its participation rows cascade.
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id int64) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

func scanScheduleSummary(row rowScanner) (persistence.ScheduleSummary, error) {
	var (
		summary                       persistence.ScheduleSummary
		description, location, detail sql.NullString
		createdAt, updatedAt          string
	)
	err := row.Scan(
		&summary.ID,
		&summary.Title,
		&description,
		&summary.Date,
		&summary.StartTime,
		&summary.EndTime,
		&location,
		&detail,
		&summary.CreatedBy,
		&createdAt,
		&updatedAt,
		&summary.CreatedByName,
		&summary.ParticipantCount,
		&summary.ConfirmedCount,
	)
	if err != nil {
		return persistence.ScheduleSummary{}, mapError(err)
	}

	summary.Description = stringPointer(description)
	summary.Location = stringPointer(location)
	summary.LocationDetail = stringPointer(detail)
	if summary.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.ScheduleSummary{}, err
	}
	if summary.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.ScheduleSummary{}, err
	}
	return summary, nil
}
