package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ds124wfegd/classbooker/internal/entity"
	"github.com/ds124wfegd/classbooker/internal/service"
)

// stubScheduleService считает вызовы прохода возвратов
type stubScheduleService struct {
	sweeps int64
}

func (s *stubScheduleService) BookClass(context.Context, *service.BookClassRequest) (*entity.Booking, error) {
	return nil, nil
}

func (s *stubScheduleService) CancelBooking(context.Context, int64, int64) error { return nil }

func (s *stubScheduleService) AddToWaitlist(context.Context, *service.JoinWaitlistRequest) (*entity.WaitlistEntry, error) {
	return nil, nil
}

func (s *stubScheduleService) CheckIn(context.Context, int64, int64) (*entity.Booking, error) {
	return nil, nil
}

func (s *stubScheduleService) GetBooking(context.Context, int64, int64) (*entity.Booking, error) {
	return nil, nil
}

func (s *stubScheduleService) ListUserBookings(context.Context, int64) ([]*entity.Booking, error) {
	return nil, nil
}

func (s *stubScheduleService) ListUserPackages(context.Context, int64) ([]*entity.UserPackage, error) {
	return nil, nil
}

func (s *stubScheduleService) ListWaitlist(context.Context, int64) ([]*entity.WaitlistEntry, error) {
	return nil, nil
}

func (s *stubScheduleService) ProcessWaitlistRefunds(context.Context) error {
	atomic.AddInt64(&s.sweeps, 1)
	return nil
}

func TestWaitlistRefundWorker_RunsAndStops(t *testing.T) {
	stub := &stubScheduleService{}
	w := NewWaitlistRefundWorker(stub, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	// даем воркеру сделать несколько тиков
	time.Sleep(55 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}

	sweeps := atomic.LoadInt64(&stub.sweeps)
	assert.GreaterOrEqual(t, sweeps, int64(1))
}

func TestWaitlistRefundWorker_Stats(t *testing.T) {
	w := NewWaitlistRefundWorker(&stubScheduleService{}, time.Hour)

	stats := w.GetStats()
	assert.Equal(t, "waitlist_refund", stats["worker_type"])
	assert.Equal(t, time.Hour.String(), stats["interval"])
}
