package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/classbooker/internal/entity"
)

// ScheduleService определяет интерфейс координатора записи на занятия
type ScheduleService interface {
	// Основные операции
	BookClass(ctx context.Context, req *BookClassRequest) (*entity.Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID int64) error
	AddToWaitlist(ctx context.Context, req *JoinWaitlistRequest) (*entity.WaitlistEntry, error)
	CheckIn(ctx context.Context, userID, bookingID int64) (*entity.Booking, error)
	GetBooking(ctx context.Context, userID, bookingID int64) (*entity.Booking, error)
	ListUserBookings(ctx context.Context, userID int64) ([]*entity.Booking, error)
	ListUserPackages(ctx context.Context, userID int64) ([]*entity.UserPackage, error)

	// Обслуживание листа ожидания
	ListWaitlist(ctx context.Context, sessionID int64) ([]*entity.WaitlistEntry, error)
	ProcessWaitlistRefunds(ctx context.Context) error
}

// SessionService определяет интерфейс для чтения расписания занятий
type SessionService interface {
	GetSession(ctx context.Context, id int64) (*entity.ClassSession, error)
	GetUpcomingSessions(ctx context.Context, limit int) ([]*entity.ClassSession, error)
}

// BookClassRequest представляет данные для записи на занятие
type BookClassRequest struct {
	UserID        int64 `json:"user_id" binding:"required"`
	SessionID     int64 `json:"session_id" binding:"required"`
	UserPackageID int64 `json:"user_package_id" binding:"required"`
}

// JoinWaitlistRequest представляет данные для постановки в очередь ожидания.
// SessionID приходит из пути запроса, поэтому в теле не обязателен.
type JoinWaitlistRequest struct {
	UserID        int64 `json:"user_id" binding:"required"`
	SessionID     int64 `json:"session_id"`
	UserPackageID int64 `json:"user_package_id" binding:"required"`
}

// BookingPolicy — правила отмены и чекина, поднимаются из конфигурации
type BookingPolicy struct {
	RefundCutoff time.Duration // отмена не позднее чем за это время до начала возвращает кредиты
	CheckInOpen  time.Duration // чекин открывается за это время до начала занятия
}
