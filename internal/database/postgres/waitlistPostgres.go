package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/classbooker/internal/entity"
)

type waitlistRepository struct {
	db *sql.DB
}

func NewWaitlistRepository(db *sql.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

const waitlistColumns = `
	id, user_id, session_id, user_package_id, credits_reserved,
	position, is_promoted, created_at, updated_at
`

func scanWaitlistEntry(row interface {
	Scan(dest ...interface{}) error
}, entry *entity.WaitlistEntry) error {
	return row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.SessionID,
		&entry.UserPackageID,
		&entry.CreditsReserved,
		&entry.Position,
		&entry.IsPromoted,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
}

// Append вычисляет позицию MAX(position)+1 внутри самого INSERT, чтобы
// назначение позиции было атомарным. Позиции строго возрастают и не
// переиспользуются даже после промоушена.
func (r *waitlistRepository) Append(ctx context.Context, entry *entity.WaitlistEntry) error {
	query := `
		INSERT INTO waitlist_entries (
			user_id, session_id, user_package_id, credits_reserved,
			position, is_promoted, created_at, updated_at
		)
		SELECT $1, $2, $3, $4,
			COALESCE(MAX(position), 0) + 1, FALSE, $5, $5
		FROM waitlist_entries
		WHERE session_id = $2
		RETURNING id, position
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		entry.UserID,
		entry.SessionID,
		entry.UserPackageID,
		entry.CreditsReserved,
		now,
	).Scan(&entry.ID, &entry.Position)

	if err != nil {
		return fmt.Errorf("failed to append waitlist entry: %w", err)
	}

	entry.IsPromoted = false
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return nil
}

func (r *waitlistRepository) NextPending(ctx context.Context, sessionID int64) (*entity.WaitlistEntry, error) {
	query := `
		SELECT ` + waitlistColumns + `
		FROM waitlist_entries
		WHERE session_id = $1 AND is_promoted = FALSE
		ORDER BY position ASC
		LIMIT 1
	`

	var entry entity.WaitlistEntry
	err := scanWaitlistEntry(r.db.QueryRowContext(ctx, query, sessionID), &entry)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next waitlist entry: %w", err)
	}

	return &entry, nil
}

func (r *waitlistRepository) ListPending(ctx context.Context, sessionID int64) ([]*entity.WaitlistEntry, error) {
	query := `
		SELECT ` + waitlistColumns + `
		FROM waitlist_entries
		WHERE session_id = $1 AND is_promoted = FALSE
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending waitlist entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.WaitlistEntry
	for rows.Next() {
		var entry entity.WaitlistEntry
		if err := scanWaitlistEntry(rows, &entry); err != nil {
			return nil, fmt.Errorf("failed to scan waitlist entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating waitlist entries: %w", err)
	}

	return entries, nil
}

func (r *waitlistRepository) HasPending(ctx context.Context, sessionID, userID int64) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM waitlist_entries
		WHERE session_id = $1 AND user_id = $2 AND is_promoted = FALSE
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, sessionID, userID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check pending waitlist entry: %w", err)
	}

	return count > 0, nil
}

// MarkPromoted — атомарный compare-and-set флага is_promoted.
// Возвращает false, если запись уже была занята другим путем
// (живым промоушеном или sweep-джобой).
func (r *waitlistRepository) MarkPromoted(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE waitlist_entries
		SET is_promoted = TRUE, updated_at = $2
		WHERE id = $1 AND is_promoted = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to mark waitlist entry promoted: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}
