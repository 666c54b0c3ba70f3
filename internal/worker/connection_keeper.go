package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/backoff"
)

// Connector is a broker connection that can be (re)established on demand.
type Connector interface {
	Connect(ctx context.Context) error
	IsConnected() bool
}

// KeepConnected connects through the backoff scheduler and re-checks the
// connection every interval, reconnecting when the broker dropped it. It
// returns when ctx is done.
func KeepConnected(ctx context.Context, conn Connector, scheduler *backoff.Scheduler, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var attempt func()
	attempt = func() {
		if ctx.Err() != nil {
			return
		}
		if err := conn.Connect(ctx); err != nil {
			logger.Error("broker connection attempt failed", zap.Error(err))
			scheduler.ScheduleRetry(attempt)
			return
		}
		scheduler.Reset()
	}

	attempt()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			scheduler.Stop()
			return
		case <-ticker.C:
			// a non-zero attempt count means a retry is already pending
			if !conn.IsConnected() && scheduler.Attempt() == 0 {
				logger.Warn("broker connection lost, reconnecting")
				attempt()
			}
		}
	}
}
