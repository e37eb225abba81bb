package connection

import (
	"context"
	"log/slog"
	"time"
)

// heartbeat sends an application-level ping on a fixed interval while a
// session is connected. A failed send ends the loop; it does not touch
// connection state.
type heartbeat struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startHeartbeat(interval time.Duration, ping func() error, logger *slog.Logger) *heartbeat {
	ctx, cancel := context.WithCancel(context.Background())
	hb := &heartbeat{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go hb.run(ctx, interval, ping, logger)
	return hb
}

func (hb *heartbeat) run(ctx context.Context, interval time.Duration, ping func() error, logger *slog.Logger) {
	defer close(hb.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			if err := ping(); err != nil {
				logger.Warn("heartbeat stopped", "error", err)
				return
			}
		}
	}
}

// stop cancels the loop without waiting for it to exit.
func (hb *heartbeat) stop() {
	hb.cancel()
}

// running reports whether the loop is still alive.
func (hb *heartbeat) running() bool {
	select {
	case <-hb.done:
		return false
	default:
		return true
	}
}
