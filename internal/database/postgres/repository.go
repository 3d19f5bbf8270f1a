package repository

import (
	"context"
	"time"

	"github.com/ds124wfegd/classbooker/internal/entity"
)

type SessionRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.ClassSession, error)
	GetUpcoming(ctx context.Context, from time.Time, limit int) ([]*entity.ClassSession, error)
	GetEnded(ctx context.Context, before time.Time) ([]*entity.ClassSession, error)

	// Guarded occupancy counter operations. Increment refuses at capacity
	// even without the distributed lock (defense in depth); decrement is
	// clamped at zero.
	IncrementOccupancy(ctx context.Context, id int64) error
	DecrementOccupancy(ctx context.Context, id int64) error
}

type UserPackageRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.UserPackage, error)
	GetByUserID(ctx context.Context, userID int64) ([]*entity.UserPackage, error)

	// Debit is the authoritative gate for spending credits: the balance
	// check, the expiry check and the subtraction happen in one atomic
	// statement. Credit is unconditional and ignores expiry.
	Debit(ctx context.Context, id int64, amount int) error
	Credit(ctx context.Context, id int64, amount int) error
}

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	GetByID(ctx context.Context, id int64) (*entity.Booking, error)
	GetByUserID(ctx context.Context, userID int64) ([]*entity.Booking, error)

	// GetOverlapping returns non-cancelled bookings of the user whose
	// session window intersects [start, end).
	GetOverlapping(ctx context.Context, userID int64, start, end time.Time) ([]*entity.Booking, error)

	UpdateStatus(ctx context.Context, id int64, status entity.BookingStatus) error
	SetCheckedIn(ctx context.Context, id int64, at time.Time) error
}

type WaitlistRepository interface {
	// Append assigns the next FIFO position for the session
	// (max position + 1, starting at 1) and fills entry.ID/entry.Position.
	Append(ctx context.Context, entry *entity.WaitlistEntry) error

	NextPending(ctx context.Context, sessionID int64) (*entity.WaitlistEntry, error)
	ListPending(ctx context.Context, sessionID int64) ([]*entity.WaitlistEntry, error)
	HasPending(ctx context.Context, sessionID, userID int64) (bool, error)

	// MarkPromoted flips is_promoted false -> true atomically and reports
	// whether this caller won the claim. Both live promotion and the refund
	// sweep must claim an entry before acting on it.
	MarkPromoted(ctx context.Context, id int64) (bool, error)
}
