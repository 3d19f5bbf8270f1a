package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/classbooker/internal/entity"
)

type sessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `
	id, name, description, country_id, start_time, end_time,
	required_credits, max_capacity, current_bookings, created_at, updated_at
`

func scanSession(row interface {
	Scan(dest ...interface{}) error
}, session *entity.ClassSession) error {
	return row.Scan(
		&session.ID,
		&session.Name,
		&session.Description,
		&session.CountryID,
		&session.StartTime,
		&session.EndTime,
		&session.RequiredCredits,
		&session.MaxCapacity,
		&session.CurrentBookings,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
}

func (r *sessionRepository) GetByID(ctx context.Context, id int64) (*entity.ClassSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM class_sessions WHERE id = $1`

	var session entity.ClassSession
	err := scanSession(r.db.QueryRowContext(ctx, query, id), &session)
	if err == sql.ErrNoRows {
		return nil, entity.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class session: %w", err)
	}

	return &session, nil
}

func (r *sessionRepository) GetUpcoming(ctx context.Context, from time.Time, limit int) ([]*entity.ClassSession, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + sessionColumns + `
		FROM class_sessions
		WHERE start_time >= $1
		ORDER BY start_time ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, from, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*entity.ClassSession
	for rows.Next() {
		var session entity.ClassSession
		if err := scanSession(rows, &session); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

func (r *sessionRepository) GetEnded(ctx context.Context, before time.Time) ([]*entity.ClassSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM class_sessions
		WHERE end_time < $1
		ORDER BY end_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query ended sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*entity.ClassSession
	for rows.Next() {
		var session entity.ClassSession
		if err := scanSession(rows, &session); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// IncrementOccupancy выполняет проверку и инкремент одним запросом:
// при заполненном занятии строка не обновляется.
func (r *sessionRepository) IncrementOccupancy(ctx context.Context, id int64) error {
	query := `
		UPDATE class_sessions
		SET current_bookings = current_bookings + 1, updated_at = $2
		WHERE id = $1 AND current_bookings < max_capacity
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to increment occupancy: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either the session is gone or it is at capacity.
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM class_sessions WHERE id = $1`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return entity.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to classify occupancy failure: %w", err)
		}
		return entity.ErrSessionFull
	}

	return nil
}

// DecrementOccupancy уменьшает счетчик, не опускаясь ниже нуля.
func (r *sessionRepository) DecrementOccupancy(ctx context.Context, id int64) error {
	query := `
		UPDATE class_sessions
		SET current_bookings = current_bookings - 1, updated_at = $2
		WHERE id = $1 AND current_bookings > 0
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to decrement occupancy: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM class_sessions WHERE id = $1`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return entity.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to classify occupancy failure: %w", err)
		}
		// Counter already at zero, nothing to do.
	}

	return nil
}
