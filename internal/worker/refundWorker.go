package worker

import (
	"context"
	"time"

	"github.com/ds124wfegd/classbooker/internal/service"

	"github.com/sirupsen/logrus"
)

// WaitlistRefundWorker периодически запускает проход возвратов по листам
// ожидания завершившихся занятий
type WaitlistRefundWorker struct {
	scheduleService service.ScheduleService
	interval        time.Duration
}

func NewWaitlistRefundWorker(scheduleService service.ScheduleService, interval time.Duration) *WaitlistRefundWorker {
	return &WaitlistRefundWorker{
		scheduleService: scheduleService,
		interval:        interval,
	}
}

func (w *WaitlistRefundWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("Waitlist refund worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Waitlist refund worker stopped")
			return
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

// runSweep выполняет один проход возвратов. Проход идемпотентен,
// поэтому падение посреди обработки безопасно: следующий тик дообработает
// оставшиеся записи.
func (w *WaitlistRefundWorker) runSweep(ctx context.Context) {
	logrus.Info("Starting waitlist refund sweep")

	if err := w.scheduleService.ProcessWaitlistRefunds(ctx); err != nil {
		logrus.Errorf("Waitlist refund sweep failed: %v", err)
		return
	}

	logrus.Info("Waitlist refund sweep completed")
}

// GetStats возвращает статистику работы воркера (дополнительный метод)
func (w *WaitlistRefundWorker) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"worker_type": "waitlist_refund",
		"interval":    w.interval.String(),
		"status":      "running",
	}
}
