package scheduler

import (
	"context"
	"time"

	"github.com/richxcame/engraving-commerce/internal/giftcards"
)

// AbandonedScanner marks and lists gift cards that became abandoned property
type AbandonedScanner interface {
	ScanAbandoned(ctx context.Context) ([]*giftcards.GiftCard, error)
	UnreportedAbandoned(ctx context.Context) ([]*giftcards.GiftCard, error)
}

// ReservationReleaser drops store credit holds left behind by dead carts
type ReservationReleaser interface {
	ReleaseStale(ctx context.Context, ttl time.Duration) (int64, error)
}
