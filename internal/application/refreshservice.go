package application

import (
	"context"
	"log/slog"
	"time"
)

// refreshRequest represents a manual refresh trigger.
type refreshRequest struct {
	done chan struct{}
}

// RefreshService drives the controller: an immediate initial load, then
// interval-driven refreshes, plus blocking manual refresh requests from
// the HTTP adapter.
type RefreshService struct {
	controller *AccountController
	interval   time.Duration
	refreshCh  chan refreshRequest
}

// NewRefreshService creates a RefreshService refreshing every interval.
func NewRefreshService(controller *AccountController, interval time.Duration) *RefreshService {
	return &RefreshService{
		controller: controller,
		interval:   interval,
		refreshCh:  make(chan refreshRequest),
	}
}

// Start begins the refresh loop. It runs an immediate load, then refreshes
// on the configured interval and serves manual refresh requests. Start
// blocks until the context is canceled.
func (s *RefreshService) Start(ctx context.Context) {
	s.controller.Load(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh service stopped")
			return
		case <-ticker.C:
			s.controller.Refresh(ctx)
		case req := <-s.refreshCh:
			s.controller.Refresh(ctx)
			close(req.done)
		}
	}
}

// RefreshNow triggers a refresh bypassing the interval. It blocks until
// the refresh completes or the context is canceled; per the controller's
// rules a cancelled caller never cancels the fetch itself.
func (s *RefreshService) RefreshNow(ctx context.Context) error {
	req := refreshRequest{done: make(chan struct{})}

	select {
	case s.refreshCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
