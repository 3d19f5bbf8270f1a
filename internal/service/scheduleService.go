package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	repository "github.com/ds124wfegd/classbooker/internal/database/postgres"
	"github.com/ds124wfegd/classbooker/internal/entity"
	"github.com/ds124wfegd/classbooker/pkg/lock"
)

type scheduleService struct {
	sessionRepo  repository.SessionRepository
	packageRepo  repository.UserPackageRepository
	bookingRepo  repository.BookingRepository
	waitlistRepo repository.WaitlistRepository

	locker        lock.SessionLock
	lockKeyPrefix string
	lockLease     time.Duration

	policy BookingPolicy
	logger *logrus.Logger

	// nowFn подменяется в тестах
	nowFn func() time.Time
}

// NewScheduleService создает новый экземпляр ScheduleService
func NewScheduleService(
	sessionRepo repository.SessionRepository,
	packageRepo repository.UserPackageRepository,
	bookingRepo repository.BookingRepository,
	waitlistRepo repository.WaitlistRepository,
	locker lock.SessionLock,
	lockKeyPrefix string,
	lockLease time.Duration,
	policy BookingPolicy,
	logger *logrus.Logger,
) ScheduleService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &scheduleService{
		sessionRepo:   sessionRepo,
		packageRepo:   packageRepo,
		bookingRepo:   bookingRepo,
		waitlistRepo:  waitlistRepo,
		locker:        locker,
		lockKeyPrefix: lockKeyPrefix,
		lockLease:     lockLease,
		policy:        policy,
		logger:        logger,
		nowFn:         time.Now,
	}
}

func (s *scheduleService) lockKey(sessionID int64) string {
	return fmt.Sprintf("%s:session:%d", s.lockKeyPrefix, sessionID)
}

// releaseLock снимает блокировку на отдельном контексте, чтобы отмена
// запроса не приводила к утечке блокировки до конца lease.
func (s *scheduleService) releaseLock(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := s.locker.Release(ctx, key, token); err != nil {
		s.logger.WithFields(logrus.Fields{
			"lock_key": key,
			"error":    err,
		}).Warn("не удалось снять блокировку занятия")
	}
}

// checkPackage выполняет общие для записи и очереди проверки пакета кредитов
func (s *scheduleService) checkPackage(ctx context.Context, userID, packageID int64, session *entity.ClassSession, now time.Time) (*entity.UserPackage, error) {
	pkg, err := s.packageRepo.GetByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if pkg.UserID != userID {
		// чужой пакет неотличим от несуществующего
		return nil, entity.ErrPackageNotFound
	}
	if pkg.IsExpired(now) {
		return nil, entity.ErrPackageExpired
	}
	if pkg.RemainingCredits < session.RequiredCredits {
		return nil, entity.ErrInsufficientCredits
	}
	if pkg.CountryID != session.CountryID {
		return nil, entity.ErrCountryMismatch
	}
	return pkg, nil
}

// BookClass записывает пользователя на занятие, списывая кредиты пакета.
// Проверка занятости и списание выполняются под распределенной блокировкой
// занятия; при конкуренции за блокировку вызывающая сторона получает
// ErrLockContention и повторяет попытку сама.
func (s *scheduleService) BookClass(ctx context.Context, req *BookClassRequest) (*entity.Booking, error) {
	now := s.nowFn()

	session, err := s.sessionRepo.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	pkg, err := s.checkPackage(ctx, req.UserID, req.UserPackageID, session, now)
	if err != nil {
		return nil, err
	}

	overlapping, err := s.bookingRepo.GetOverlapping(ctx, req.UserID, session.StartTime, session.EndTime)
	if err != nil {
		return nil, fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	if len(overlapping) > 0 {
		return nil, entity.ErrOverlappingBooking
	}

	key := s.lockKey(session.ID)
	token, ok, err := s.locker.TryAcquire(ctx, key, s.lockLease)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !ok {
		return nil, entity.ErrLockContention
	}
	defer s.releaseLock(key, token)

	// Повторное чтение под блокировкой: занятость могла измениться
	// между проверками и захватом блокировки
	session, err = s.sessionRepo.GetByID(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if session.IsFull() {
		return nil, entity.ErrSessionFull
	}

	// Debit — авторитетная проверка баланса: между шагом проверки и этим
	// местом пользователь мог потратить кредиты на другое занятие
	if err := s.packageRepo.Debit(ctx, pkg.ID, session.RequiredCredits); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.IncrementOccupancy(ctx, session.ID); err != nil {
		s.compensateDebit(pkg.ID, session.RequiredCredits)
		return nil, err
	}

	booking := &entity.Booking{
		UserID:        req.UserID,
		SessionID:     session.ID,
		UserPackageID: pkg.ID,
		CreditsUsed:   session.RequiredCredits,
		Status:        entity.BookingStatusBooked,
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		s.compensateOccupancy(session.ID)
		s.compensateDebit(pkg.ID, session.RequiredCredits)
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"user_id":    booking.UserID,
		"session_id": booking.SessionID,
		"credits":    booking.CreditsUsed,
	}).Info("запись на занятие создана")

	return booking, nil
}

// compensateDebit возвращает кредиты, списанные на неудавшуюся запись
func (s *scheduleService) compensateDebit(packageID int64, amount int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.packageRepo.Credit(ctx, packageID, amount); err != nil {
		s.logger.WithFields(logrus.Fields{
			"package_id": packageID,
			"amount":     amount,
			"error":      err,
		}).Error("не удалось вернуть кредиты после сбоя записи")
	}
}

func (s *scheduleService) compensateOccupancy(sessionID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.sessionRepo.DecrementOccupancy(ctx, sessionID); err != nil {
		s.logger.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err,
		}).Error("не удалось откатить счетчик занятости после сбоя записи")
	}
}

// CancelBooking отменяет запись. Кредиты возвращаются, только если до
// начала занятия осталось не меньше порога из политики (включительно).
func (s *scheduleService) CancelBooking(ctx context.Context, userID, bookingID int64) error {
	now := s.nowFn()

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.UserID != userID {
		return entity.ErrBookingNotFound
	}
	if booking.Status == entity.BookingStatusCancelled {
		return entity.ErrBookingAlreadyCancelled
	}

	session, err := s.sessionRepo.GetByID(ctx, booking.SessionID)
	if err != nil {
		return err
	}

	refund := session.StartTime.Sub(now) >= s.policy.RefundCutoff
	if refund {
		if err := s.packageRepo.Credit(ctx, booking.UserPackageID, booking.CreditsUsed); err != nil {
			return fmt.Errorf("failed to refund credits: %w", err)
		}
	}

	if err := s.bookingRepo.UpdateStatus(ctx, bookingID, entity.BookingStatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	if err := s.sessionRepo.DecrementOccupancy(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to decrement occupancy: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"user_id":    userID,
		"session_id": session.ID,
		"refunded":   refund,
	}).Info("запись отменена")

	// Освободившееся место отдаем голове листа ожидания
	if err := s.promoteNext(ctx, session.ID); err != nil {
		s.logger.WithFields(logrus.Fields{
			"session_id": session.ID,
			"error":      err,
		}).Warn("промоушен из листа ожидания не удался")
	}

	return nil
}

// promoteNext переводит голову листа ожидания в полноценную запись.
// Отмена освобождает ровно одно место, поэтому за вызов продвигается
// не больше одной записи. Перед списанием кредитов путь должен выиграть
// CAS на is_promoted: та же запись могла параллельно достаться
// sweep-джобе возвратов.
func (s *scheduleService) promoteNext(ctx context.Context, sessionID int64) error {
	key := s.lockKey(sessionID)
	token, ok, err := s.locker.TryAcquire(ctx, key, s.lockLease)
	if err != nil {
		return fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !ok {
		// место заберет следующая отмена либо прямой букер
		s.logger.WithField("session_id", sessionID).Debug("блокировка занята, промоушен пропущен")
		return nil
	}
	defer s.releaseLock(key, token)

	entry, err := s.waitlistRepo.NextPending(ctx, sessionID)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.IsFull() {
		// место успел занять прямой букер
		return nil
	}

	claimed, err := s.waitlistRepo.MarkPromoted(ctx, entry.ID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	if err := s.packageRepo.Debit(ctx, entry.UserPackageID, entry.CreditsReserved); err != nil {
		// запись уже занята этим путем; кредиты не двигались, возвращать нечего
		s.logger.WithFields(logrus.Fields{
			"waitlist_entry_id": entry.ID,
			"user_id":           entry.UserID,
			"session_id":        sessionID,
			"error":             err,
		}).Warn("списание кредитов при промоушене не удалось")
		return nil
	}

	if err := s.sessionRepo.IncrementOccupancy(ctx, sessionID); err != nil {
		s.compensateDebit(entry.UserPackageID, entry.CreditsReserved)
		return err
	}

	booking := &entity.Booking{
		UserID:        entry.UserID,
		SessionID:     sessionID,
		UserPackageID: entry.UserPackageID,
		CreditsUsed:   entry.CreditsReserved,
		Status:        entity.BookingStatusBooked,
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		s.compensateOccupancy(sessionID)
		s.compensateDebit(entry.UserPackageID, entry.CreditsReserved)
		return fmt.Errorf("failed to create booking for promoted entry: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"waitlist_entry_id": entry.ID,
		"user_id":           entry.UserID,
		"session_id":        sessionID,
		"position":          entry.Position,
	}).Info("запись из листа ожидания продвинута")

	return nil
}

// AddToWaitlist ставит пользователя в очередь на заполненное занятие.
// Кредиты при этом только резервируются логически, списание произойдет
// в момент промоушена.
func (s *scheduleService) AddToWaitlist(ctx context.Context, req *JoinWaitlistRequest) (*entity.WaitlistEntry, error) {
	now := s.nowFn()

	session, err := s.sessionRepo.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsFull() {
		// на занятии есть места, нужно записываться напрямую
		return nil, entity.ErrSessionNotFull
	}

	if _, err := s.checkPackage(ctx, req.UserID, req.UserPackageID, session, now); err != nil {
		return nil, err
	}

	pending, err := s.waitlistRepo.HasPending(ctx, req.SessionID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check waitlist: %w", err)
	}
	if pending {
		return nil, entity.ErrAlreadyWaitlisted
	}

	entry := &entity.WaitlistEntry{
		UserID:          req.UserID,
		SessionID:       req.SessionID,
		UserPackageID:   req.UserPackageID,
		CreditsReserved: session.RequiredCredits,
	}
	if err := s.waitlistRepo.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"waitlist_entry_id": entry.ID,
		"user_id":           entry.UserID,
		"session_id":        entry.SessionID,
		"position":          entry.Position,
	}).Info("пользователь добавлен в лист ожидания")

	return entry, nil
}

// CheckIn отмечает явку. Окно чекина открывается за policy.CheckInOpen
// до начала занятия и закрывается с его окончанием.
func (s *scheduleService) CheckIn(ctx context.Context, userID, bookingID int64) (*entity.Booking, error) {
	now := s.nowFn()

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, entity.ErrBookingNotFound
	}
	if booking.Status == entity.BookingStatusCancelled {
		return nil, entity.ErrBookingAlreadyCancelled
	}

	session, err := s.sessionRepo.GetByID(ctx, booking.SessionID)
	if err != nil {
		return nil, err
	}

	if now.Before(session.StartTime.Add(-s.policy.CheckInOpen)) {
		return nil, entity.ErrCheckInTooEarly
	}
	if session.HasEnded(now) {
		return nil, entity.ErrCheckInTooLate
	}

	if err := s.bookingRepo.SetCheckedIn(ctx, bookingID, now); err != nil {
		return nil, fmt.Errorf("failed to check in: %w", err)
	}

	booking.Status = entity.BookingStatusCheckedIn
	booking.IsCheckedIn = true
	booking.CheckInTime = &now

	s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"user_id":    userID,
		"session_id": session.ID,
	}).Info("чекин выполнен")

	return booking, nil
}

// GetBooking возвращает запись пользователя по идентификатору
func (s *scheduleService) GetBooking(ctx context.Context, userID, bookingID int64) (*entity.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, entity.ErrBookingNotFound
	}
	return booking, nil
}

// ListUserBookings возвращает все записи пользователя
func (s *scheduleService) ListUserBookings(ctx context.Context, userID int64) ([]*entity.Booking, error) {
	bookings, err := s.bookingRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	return bookings, nil
}

// ListUserPackages возвращает пакеты кредитов пользователя
func (s *scheduleService) ListUserPackages(ctx context.Context, userID int64) ([]*entity.UserPackage, error) {
	packages, err := s.packageRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user packages: %w", err)
	}
	return packages, nil
}

// ListWaitlist возвращает ожидающие записи занятия в порядке позиций
func (s *scheduleService) ListWaitlist(ctx context.Context, sessionID int64) ([]*entity.WaitlistEntry, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.waitlistRepo.ListPending(ctx, sessionID)
}

// ProcessWaitlistRefunds обходит завершившиеся занятия и возвращает кредиты
// по записям листа ожидания, которые так и не были продвинуты. Выигрыш CAS
// на is_promoted делает возврат идемпотентным: повторный проход и живой
// промоушен не могут обработать одну запись дважды.
func (s *scheduleService) ProcessWaitlistRefunds(ctx context.Context) error {
	now := s.nowFn()

	sessions, err := s.sessionRepo.GetEnded(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to load ended sessions: %w", err)
	}

	var refunded int
	for _, session := range sessions {
		entries, err := s.waitlistRepo.ListPending(ctx, session.ID)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"session_id": session.ID,
				"error":      err,
			}).Error("не удалось прочитать лист ожидания")
			continue
		}

		for _, entry := range entries {
			claimed, err := s.waitlistRepo.MarkPromoted(ctx, entry.ID)
			if err != nil {
				s.logger.WithFields(logrus.Fields{
					"waitlist_entry_id": entry.ID,
					"error":             err,
				}).Error("не удалось занять запись листа ожидания")
				continue
			}
			if !claimed {
				// запись уже обработана живым промоушеном или прошлым проходом
				continue
			}

			if err := s.packageRepo.Credit(ctx, entry.UserPackageID, entry.CreditsReserved); err != nil {
				s.logger.WithFields(logrus.Fields{
					"waitlist_entry_id": entry.ID,
					"package_id":        entry.UserPackageID,
					"error":             err,
				}).Error("не удалось вернуть кредиты по записи листа ожидания")
				continue
			}

			refunded++
			s.logger.WithFields(logrus.Fields{
				"waitlist_entry_id": entry.ID,
				"user_id":           entry.UserID,
				"session_id":        session.ID,
				"credits":           entry.CreditsReserved,
			}).Info("кредиты по просроченной записи листа ожидания возвращены")
		}
	}

	if refunded > 0 {
		s.logger.WithField("count", refunded).Info("проход возвратов по листу ожидания завершен")
	}

	return nil
}
