package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/classbooker/internal/entity"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `
	id, user_id, session_id, user_package_id, credits_used, status,
	is_checked_in, check_in_time, created_at, updated_at
`

func scanBooking(row interface {
	Scan(dest ...interface{}) error
}, booking *entity.Booking) error {
	var checkInTime sql.NullTime
	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.SessionID,
		&booking.UserPackageID,
		&booking.CreditsUsed,
		&booking.Status,
		&booking.IsCheckedIn,
		&checkInTime,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if checkInTime.Valid {
		booking.CheckInTime = &checkInTime.Time
	}
	return nil
}

// Create appends a booking to the log. Bookings are never physically
// deleted; terminal outcomes are status transitions.
func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (
			user_id, session_id, user_package_id, credits_used, status,
			is_checked_in, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		booking.UserID,
		booking.SessionID,
		booking.UserPackageID,
		booking.CreditsUsed,
		booking.Status,
		booking.IsCheckedIn,
		now,
		now,
	).Scan(&booking.ID)

	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var booking entity.Booking
	err := scanBooking(r.db.QueryRowContext(ctx, query, id), &booking)
	if err == sql.ErrNoRows {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) GetByUserID(ctx context.Context, userID int64) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings by user: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		var booking entity.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, &booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}

// GetOverlapping возвращает неотмененные брони пользователя, чье занятие
// пересекается с окном [start, end).
func (r *bookingRepository) GetOverlapping(ctx context.Context, userID int64, start, end time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT
			b.id, b.user_id, b.session_id, b.user_package_id, b.credits_used,
			b.status, b.is_checked_in, b.check_in_time, b.created_at, b.updated_at
		FROM bookings b
		JOIN class_sessions s ON b.session_id = s.id
		WHERE b.user_id = $1
		  AND b.status != 'cancelled'
		  AND s.start_time < $3 AND s.end_time > $2
		ORDER BY s.start_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		var booking entity.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, &booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overlapping bookings: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id int64, status entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrBookingNotFound
	}

	return nil
}

func (r *bookingRepository) SetCheckedIn(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE bookings
		SET status = $2, is_checked_in = TRUE, check_in_time = $3, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, entity.BookingStatusCheckedIn, at)
	if err != nil {
		return fmt.Errorf("failed to set booking checked in: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrBookingNotFound
	}

	return nil
}
