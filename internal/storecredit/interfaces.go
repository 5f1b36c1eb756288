package storecredit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RepositoryInterface defines the contract for store credit persistence
type RepositoryInterface interface {
	// Account operations
	GetByCustomer(ctx context.Context, customerID string) (*StoreCredit, error)
	GetOrCreate(ctx context.Context, customerID, currency string) (*StoreCredit, error)
	Credit(ctx context.Context, customerID string, amount int64, currency string) (int64, error)
	Debit(ctx context.Context, customerID string, requested int64) (int64, error)

	// Reservation operations
	HoldForCart(ctx context.Context, r *Reservation) error
	GetHeldByCart(ctx context.Context, cartID string) (*Reservation, error)
	GetCommittedByOrder(ctx context.Context, orderID string) (*Reservation, error)
	Commit(ctx context.Context, reservationID uuid.UUID, orderID string) (int64, error)
	Refund(ctx context.Context, reservationID uuid.UUID) (int64, error)
	Release(ctx context.Context, reservationID uuid.UUID) (bool, error)
	ReleaseHeldBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
