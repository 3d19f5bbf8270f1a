package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ds124wfegd/classbooker/internal/entity"
)

// In-memory реализации репозиториев и блокировки для тестов координатора.
// Все операции защищены мьютексом, чтобы конкурентные тесты отражали
// атомарность guard-операций настоящего хранилища.

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[int64]*entity.ClassSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[int64]*entity.ClassSession)}
}

func (r *fakeSessionRepo) put(s *entity.ClassSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id int64) (*entity.ClassSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) GetUpcoming(_ context.Context, from time.Time, limit int) ([]*entity.ClassSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ClassSession
	// граница включительная, как в SQL-реализации (start_time >= from)
	for _, s := range r.sessions {
		if !s.StartTime.Before(from) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSessionRepo) GetEnded(_ context.Context, before time.Time) ([]*entity.ClassSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ClassSession
	for _, s := range r.sessions {
		if s.EndTime.Before(before) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) IncrementOccupancy(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return entity.ErrSessionNotFound
	}
	if s.CurrentBookings >= s.MaxCapacity {
		return entity.ErrSessionFull
	}
	s.CurrentBookings++
	return nil
}

func (r *fakeSessionRepo) DecrementOccupancy(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return entity.ErrSessionNotFound
	}
	if s.CurrentBookings > 0 {
		s.CurrentBookings--
	}
	return nil
}

func (r *fakeSessionRepo) occupancy(id int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id].CurrentBookings
}

type fakePackageRepo struct {
	mu       sync.Mutex
	packages map[int64]*entity.UserPackage
	now      func() time.Time
}

func newFakePackageRepo(now func() time.Time) *fakePackageRepo {
	return &fakePackageRepo{packages: make(map[int64]*entity.UserPackage), now: now}
}

func (r *fakePackageRepo) put(p *entity.UserPackage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.packages[p.ID] = &cp
}

func (r *fakePackageRepo) GetByID(_ context.Context, id int64) (*entity.UserPackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.packages[id]
	if !ok {
		return nil, entity.ErrPackageNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePackageRepo) GetByUserID(_ context.Context, userID int64) ([]*entity.UserPackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.UserPackage
	for _, p := range r.packages {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePackageRepo) Debit(_ context.Context, id int64, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.packages[id]
	if !ok {
		return entity.ErrPackageNotFound
	}
	if r.now().After(p.ExpiryDate) {
		return entity.ErrPackageExpired
	}
	if p.RemainingCredits < amount {
		return entity.ErrInsufficientCredits
	}
	p.RemainingCredits -= amount
	return nil
}

func (r *fakePackageRepo) Credit(_ context.Context, id int64, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.packages[id]
	if !ok {
		return entity.ErrPackageNotFound
	}
	p.RemainingCredits += amount
	return nil
}

func (r *fakePackageRepo) balance(id int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.packages[id].RemainingCredits
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[int64]*entity.Booking
	nextID   int64
	sessions *fakeSessionRepo
}

func newFakeBookingRepo(sessions *fakeSessionRepo) *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[int64]*entity.Booking), sessions: sessions}
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	booking.ID = r.nextID
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	cp := *booking
	r.bookings[booking.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id int64) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, entity.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) GetByUserID(_ context.Context, userID int64) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.bookings {
		if b.UserID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBookingRepo) GetOverlapping(ctx context.Context, userID int64, start, end time.Time) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.bookings {
		if b.UserID != userID || b.Status == entity.BookingStatusCancelled {
			continue
		}
		s, err := r.sessions.GetByID(ctx, b.SessionID)
		if err != nil {
			return nil, err
		}
		if s.StartTime.Before(end) && s.EndTime.After(start) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, id int64, status entity.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return entity.ErrBookingNotFound
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	return nil
}

func (r *fakeBookingRepo) SetCheckedIn(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return entity.ErrBookingNotFound
	}
	b.Status = entity.BookingStatusCheckedIn
	b.IsCheckedIn = true
	t := at
	b.CheckInTime = &t
	b.UpdatedAt = at
	return nil
}

func (r *fakeBookingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

type fakeWaitlistRepo struct {
	mu      sync.Mutex
	entries []*entity.WaitlistEntry
	nextID  int64
}

func newFakeWaitlistRepo() *fakeWaitlistRepo {
	return &fakeWaitlistRepo{}
}

func (r *fakeWaitlistRepo) Append(_ context.Context, entry *entity.WaitlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	maxPos := 0
	for _, e := range r.entries {
		if e.SessionID == entry.SessionID && e.Position > maxPos {
			maxPos = e.Position
		}
	}
	r.nextID++
	entry.ID = r.nextID
	entry.Position = maxPos + 1
	entry.IsPromoted = false
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *fakeWaitlistRepo) NextPending(_ context.Context, sessionID int64) (*entity.WaitlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var head *entity.WaitlistEntry
	for _, e := range r.entries {
		if e.SessionID != sessionID || e.IsPromoted {
			continue
		}
		if head == nil || e.Position < head.Position {
			head = e
		}
	}
	if head == nil {
		return nil, nil
	}
	cp := *head
	return &cp, nil
}

func (r *fakeWaitlistRepo) ListPending(_ context.Context, sessionID int64) ([]*entity.WaitlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.WaitlistEntry
	for _, e := range r.entries {
		if e.SessionID == sessionID && !e.IsPromoted {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeWaitlistRepo) HasPending(_ context.Context, sessionID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.SessionID == sessionID && e.UserID == userID && !e.IsPromoted {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeWaitlistRepo) MarkPromoted(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			if e.IsPromoted {
				return false, nil
			}
			e.IsPromoted = true
			e.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeWaitlistRepo) get(id int64) *entity.WaitlistEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			cp := *e
			return &cp
		}
	}
	return nil
}

// fakeLock — in-memory аналог распределенной блокировки: один держатель
// на ключ, освобождение только с совпадающим токеном.
type fakeLock struct {
	mu      sync.Mutex
	held    map[string]string
	counter int64
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: make(map[string]string)}
}

func (l *fakeLock) TryAcquire(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return "", false, nil
	}
	l.counter++
	token := fmt.Sprintf("token-%d", l.counter)
	l.held[key] = token
	return token, true, nil
}

func (l *fakeLock) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}
