// Package notify delivers deletion-scheduled notices to asset owners.
//
// Delivery is best-effort and fully detached from the request path: the
// dispatcher returns before delivery happens, failures are logged and never
// surfaced to the operation that triggered them, and nothing is retried.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/logging"
)

// Notifier performs one synchronous delivery attempt.
type Notifier interface {
	Notify(ctx context.Context, ownerEmail, fileName string, purgeDate time.Time) error
}

// Discard accepts every notice without delivering it. Used when no relay is
// configured.
var Discard Notifier = discardNotifier{}

type discardNotifier struct{}

func (discardNotifier) Notify(ctx context.Context, ownerEmail, fileName string, purgeDate time.Time) error {
	return nil
}

// Dispatcher runs deliveries on detached goroutines.
type Dispatcher struct {
	notifier Notifier
	logger   logging.Logger
	timeout  time.Duration

	wg sync.WaitGroup
}

// NewDispatcher wraps notifier. Each delivery attempt is bounded by timeout.
func NewDispatcher(notifier Notifier, logger logging.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		logger:   logger.With("module", "notify"),
		timeout:  timeout,
	}
}

// Dispatch schedules one delivery attempt and returns immediately. The
// outcome is observable only through logs (and Wait, for shutdown/tests).
func (d *Dispatcher) Dispatch(ownerEmail, fileName string, purgeDate time.Time) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.Notify(ctx, ownerEmail, fileName, purgeDate); err != nil {
			d.logger.Error(ctx, "deletion notification failed",
				"owner", ownerEmail, "file", fileName, "error", err)
			return
		}
		d.logger.Info(ctx, "deletion notification sent",
			"owner", ownerEmail, "file", fileName, "purge_date", purgeDate)
	}()
}

// Wait blocks until all dispatched deliveries have finished. Used on
// shutdown and in tests; the request path never calls it.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
