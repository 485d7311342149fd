package notifications

import (
	"context"
	"log/slog"

	"github.com/dragonlab/mimokit/pkg/logger"
)

// Presenter displays a single notification and blocks until the display
// completes, either by running out its duration or by manual dismissal.
type Presenter interface {
	Show(ctx context.Context, n Notification) error
}

// Hub bridges the store to a presenter. It consumes the queue in strict FIFO
// order: show the oldest notification, remove it once shown, then the next.
// Every notification pushed while the hub is running is eventually displayed;
// none are silently superseded.
type Hub struct {
	store     *Store
	presenter Presenter
	archive   Archive
	log       *slog.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the logger for the Hub.
func WithHubLogger(log *slog.Logger) HubOption {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}

// WithArchive makes the hub record every displayed notification, best
// effort: archive failures are logged and never stall the display loop.
func WithArchive(a Archive) HubOption {
	return func(h *Hub) {
		h.archive = a
	}
}

// NewHub creates a hub consuming store through presenter.
func NewHub(store *Store, presenter Presenter, opts ...HubOption) *Hub {
	h := &Hub{
		store:     store,
		presenter: presenter,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run consumes the queue until ctx is cancelled or the store is closed.
// It is the store's single consumer; run exactly one Hub per store.
func (h *Hub) Run(ctx context.Context) error {
	wake := h.store.Watch(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, ok := h.store.Oldest()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case _, open := <-wake:
				if !open {
					return ctx.Err()
				}
			}
			continue
		}

		if err := h.presenter.Show(ctx, n); err != nil {
			h.log.LogAttrs(ctx, slog.LevelWarn, "failed to present notification",
				logger.NotificationID(n.ID),
				logger.Error(err),
			)
		}

		// Removed only after display completes, so a crash between show and
		// remove re-shows rather than drops.
		h.store.Remove(n.ID)

		if h.archive != nil {
			if err := h.archive.Save(ctx, n); err != nil {
				h.log.LogAttrs(ctx, slog.LevelWarn, "failed to archive notification",
					logger.NotificationID(n.ID),
					logger.Error(err),
				)
			}
		}
	}
}
