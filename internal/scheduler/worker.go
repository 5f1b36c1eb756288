package scheduler

import (
	"context"
	"time"

	"github.com/richxcame/engraving-commerce/internal/giftcards"
	"github.com/richxcame/engraving-commerce/pkg/eventbus"
	"go.uber.org/zap"
)

const (
	defaultInterval       = 24 * time.Hour
	defaultReservationTTL = 72 * time.Hour
	sweepTimeout          = 5 * time.Minute
	eventSource           = "scheduler"
)

// Worker runs the periodic back-office sweeps: abandoned gift card
// detection and stale store credit reservation cleanup.
type Worker struct {
	cards          AbandonedScanner
	credits        ReservationReleaser
	publisher      eventbus.Publisher
	logger         *zap.Logger
	interval       time.Duration
	reservationTTL time.Duration
	done           chan struct{}
}

// NewWorker creates a new scheduler worker. credits and publisher may be nil.
func NewWorker(cards AbandonedScanner, credits ReservationReleaser, publisher eventbus.Publisher, logger *zap.Logger, interval, reservationTTL time.Duration) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	if reservationTTL <= 0 {
		reservationTTL = defaultReservationTTL
	}
	return &Worker{
		cards:          cards,
		credits:        credits,
		publisher:      publisher,
		logger:         logger,
		interval:       interval,
		reservationTTL: reservationTTL,
		done:           make(chan struct{}),
	}
}

// Start runs a sweep immediately and then on every tick until ctx is done
// or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Scheduler worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Scheduler worker stopped: context done")
			return
		case <-w.done:
			w.logger.Info("Scheduler worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop signals Start to return
func (w *Worker) Stop() {
	close(w.done)
}

func (w *Worker) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	w.scanAbandoned(ctx)
	w.releaseStaleReservations(ctx)
}

// scanAbandoned marks newly abandoned cards and announces everything still
// awaiting a compliance report.
func (w *Worker) scanAbandoned(ctx context.Context) {
	marked, err := w.cards.ScanAbandoned(ctx)
	if err != nil {
		w.logger.Error("Failed to scan abandoned gift cards", zap.Error(err))
		return
	}
	if len(marked) > 0 {
		w.logger.Info("Marked gift cards as abandoned", zap.Int("count", len(marked)))
	}

	unreported, err := w.cards.UnreportedAbandoned(ctx)
	if err != nil {
		w.logger.Error("Failed to list unreported abandoned gift cards", zap.Error(err))
		return
	}
	if len(unreported) == 0 || w.publisher == nil {
		return
	}

	if err := w.publishAbandoned(ctx, unreported); err != nil {
		w.logger.Error("Failed to publish abandoned gift cards", zap.Error(err))
	}
}

func (w *Worker) publishAbandoned(ctx context.Context, cards []*giftcards.GiftCard) error {
	data := eventbus.GiftCardsAbandonedData{
		GiftCardIDs: make([]string, 0, len(cards)),
		ScannedAt:   time.Now().UTC(),
	}
	for _, c := range cards {
		data.GiftCardIDs = append(data.GiftCardIDs, c.ID.String())
		data.TotalValue += c.Value
	}

	event, err := eventbus.NewEvent(eventbus.SubjectGiftCardsAbandoned, eventSource, data)
	if err != nil {
		return err
	}
	if err := w.publisher.Publish(ctx, eventbus.SubjectGiftCardsAbandoned, event); err != nil {
		return err
	}

	w.logger.Info("Published unreported abandoned gift cards",
		zap.Int("count", len(cards)),
		zap.Int64("total_value", data.TotalValue),
	)
	return nil
}

func (w *Worker) releaseStaleReservations(ctx context.Context) {
	if w.credits == nil {
		return
	}

	n, err := w.credits.ReleaseStale(ctx, w.reservationTTL)
	if err != nil {
		w.logger.Error("Failed to release stale store credit reservations", zap.Error(err))
		return
	}
	if n > 0 {
		w.logger.Info("Released stale store credit reservations", zap.Int64("count", n))
	}
}
