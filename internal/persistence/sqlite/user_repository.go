package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/club-scheduler/internal/persistence"
)

const userColumns = `id, name, phone, is_approved, is_admin, created_at, updated_at`

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateUser inserts a member. The first member ever stored is approved and
// made administrator inside the same statement so concurrent registrations
// cannot both claim the role.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	now := nowUTC(user.CreatedAt)

	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO users (name, phone, is_approved, is_admin, created_at, updated_at)
		SELECT ?, ?,
			CASE WHEN EXISTS (SELECT 1 FROM users) THEN ? ELSE 1 END,
			CASE WHEN EXISTS (SELECT 1 FROM users) THEN ? ELSE 1 END,
			?, ?`,
		user.Name,
		user.Phone,
		user.IsApproved,
		user.IsAdmin,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return persistence.User{}, mapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return persistence.User{}, fmt.Errorf("failed to read inserted user id: %w", err)
	}
	return r.GetUser(ctx, id)
}

// UpdateUser overwrites the editable member fields.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE users
		SET name = ?, phone = ?, is_approved = ?, is_admin = ?, updated_at = ?
		WHERE id = ?`,
		user.Name,
		user.Phone,
		user.IsApproved,
		user.IsAdmin,
		formatTime(nowUTC(user.UpdatedAt)),
		user.ID,
	)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	if err := requireAffected(result); err != nil {
		return persistence.User{}, err
	}
	return r.GetUser(ctx, user.ID)
}

// GetUser retrieves a member by ID.
func (r *UserRepository) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByPhone retrieves a member by formatted phone number.
func (r *UserRepository) GetUserByPhone(ctx context.Context, phone string) (persistence.User, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone = ?`, phone)
	return scanUser(row)
}

// ListUsers returns all members in registration order.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

// ListPendingUsers returns members awaiting approval in registration order.
func (r *UserRepository) ListPendingUsers(ctx context.Context) ([]persistence.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE is_approved = 0 ORDER BY id`)
}

// SetApproval flips the approval flag of a member.
func (r *UserRepository) SetApproval(ctx context.Context, id int64, approved bool, at time.Time) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE users SET is_approved = ?, updated_at = ? WHERE id = ?`,
		approved, formatTime(nowUTC(at)), id,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// DeleteUser removes a member. Participation rows cascade and created
// schedules keep existing without a creator.
func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]persistence.User, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                 persistence.User
		createdAt, updatedAt string
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Phone, &user.IsApproved, &user.IsAdmin, &createdAt, &updatedAt); err != nil {
		return persistence.User{}, mapError(err)
	}

	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
