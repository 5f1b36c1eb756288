package giftcards

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/engraving-commerce/pkg/database"
)

// RepositoryInterface defines the contract for gift card persistence
type RepositoryInterface interface {
	// Ledger operations
	CodeExists(ctx context.Context, code string) (bool, error)
	CreateCard(ctx context.Context, card *GiftCard) error
	GetCardByCode(ctx context.Context, code string) (*GiftCard, error)
	GetCardByID(ctx context.Context, id uuid.UUID) (*GiftCard, error)
	ListCards(ctx context.Context, filter ListFilter, limit, offset int) ([]*GiftCard, int64, error)
	CountCardsForLineItem(ctx context.Context, orderID, lineItemID string) (int, error)
	ListUndelivered(ctx context.Context, orderID string) ([]*GiftCard, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error

	// RedeemCard marks the card redeemed and credits its value to the
	// customer in one transaction, returning the new store credit balance.
	RedeemCard(ctx context.Context, cardID uuid.UUID, customerID string) (*GiftCard, int64, error)

	// Abandoned-property operations
	MarkAbandoned(ctx context.Context, purchasedBefore time.Time) ([]*GiftCard, error)
	GetUnreportedAbandoned(ctx context.Context) ([]*GiftCard, error)
	MarkAbandonedReported(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// CreditWriter credits store credit through a caller-owned transaction
type CreditWriter interface {
	CreditTx(ctx context.Context, db database.DBTX, customerID string, amount int64, currency string) (int64, error)
}
