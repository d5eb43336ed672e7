package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/club-scheduler/internal/persistence"
)

// ParticipantRepository implements persistence.ParticipantRepository using SQLite.
type ParticipantRepository struct {
	pool *ConnectionPool
}

// NewParticipantRepository creates a new SQLite participant repository.
func NewParticipantRepository(pool *ConnectionPool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// UpsertParticipant creates the row or overwrites its status. The rowid and
// created_at of an existing row are kept so arrival order is stable.
func (r *ParticipantRepository) UpsertParticipant(ctx context.Context, scheduleID, userID int64, status string, at time.Time) error {
	ts := formatTime(nowUTC(at))
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO schedule_participants (schedule_id, user_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (schedule_id, user_id) DO UPDATE
		SET status = excluded.status, updated_at = excluded.updated_at`,
		scheduleID, userID, status, ts, ts,
	)
	return mapError(err)
}

// DeleteParticipant removes the row and reports whether it existed.
func (r *ParticipantRepository) DeleteParticipant(ctx context.Context, scheduleID, userID int64) (bool, error) {
	result, err := r.pool.db.ExecContext(ctx,
		`DELETE FROM schedule_participants WHERE schedule_id = ? AND user_id = ?`,
		scheduleID, userID,
	)
	if err != nil {
		return false, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListParticipants returns the rows of a schedule in arrival order.
func (r *ParticipantRepository) ListParticipants(ctx context.Context, scheduleID int64) ([]persistence.Participant, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT p.schedule_id, p.user_id, u.name, u.phone, p.status, p.created_at, p.updated_at
		FROM schedule_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.schedule_id = ?
		ORDER BY p.rowid`,
		scheduleID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var participants []persistence.Participant
	for rows.Next() {
		var (
			p                    persistence.Participant
			createdAt, updatedAt string
		)
		if err := rows.Scan(&p.ScheduleID, &p.UserID, &p.UserName, &p.UserPhone, &p.Status, &createdAt, &updatedAt); err != nil {
			return nil, mapError(err)
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return participants, nil
}

// ListUserParticipations returns every schedule the member answered, ordered by date.
func (r *ParticipantRepository) ListUserParticipations(ctx context.Context, userID int64) ([]persistence.Participation, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.description, s.date, s.start_time, s.end_time,
			s.location, s.location_detail, COALESCE(s.created_by, 0), s.created_at, s.updated_at,
			COALESCE(c.name, ''), p.status
		FROM schedule_participants p
		JOIN schedules s ON s.id = p.schedule_id
		LEFT JOIN users c ON c.id = s.created_by
		WHERE p.user_id = ?
		ORDER BY s.date, s.start_time, s.id`,
		userID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var participations []persistence.Participation
	for rows.Next() {
		var (
			item                          persistence.Participation
			description, location, detail sql.NullString
			createdAt, updatedAt          string
		)
		err := rows.Scan(
			&item.ID, &item.Title, &description, &item.Date, &item.StartTime, &item.EndTime,
			&location, &detail, &item.CreatedBy, &createdAt, &updatedAt,
			&item.CreatedByName, &item.Status,
		)
		if err != nil {
			return nil, mapError(err)
		}
		item.Description = stringPointer(description)
		item.Location = stringPointer(location)
		item.LocationDetail = stringPointer(detail)
		if item.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		participations = append(participations, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return participations, nil
}
