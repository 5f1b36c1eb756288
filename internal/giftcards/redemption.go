package giftcards

import (
	"context"

	"github.com/google/uuid"
)

// Redeemer is the ledger surface the coordinator drives
type Redeemer interface {
	Redeem(ctx context.Context, code, customerID string) (*GiftCard, int64, error)
	RedeemByID(ctx context.Context, id uuid.UUID, customerID string) (*GiftCard, int64, error)
}

// Coordinator turns gift cards into store credit. The ledger update and the
// credit commit or roll back together.
type Coordinator struct {
	ledger Redeemer
}

// NewCoordinator creates a redemption coordinator
func NewCoordinator(ledger Redeemer) *Coordinator {
	return &Coordinator{ledger: ledger}
}

// RedeemByCode redeems the card with code into customerID's store credit
func (c *Coordinator) RedeemByCode(ctx context.Context, code, customerID string) (*RedemptionResult, error) {
	card, balance, err := c.ledger.Redeem(ctx, code, customerID)
	if err != nil {
		return nil, err
	}
	return &RedemptionResult{GiftCard: card, StoreCreditBalance: balance}, nil
}

// RedeemByID redeems the card with id into customerID's store credit
func (c *Coordinator) RedeemByID(ctx context.Context, id uuid.UUID, customerID string) (*RedemptionResult, error) {
	card, balance, err := c.ledger.RedeemByID(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	return &RedemptionResult{GiftCard: card, StoreCreditBalance: balance}, nil
}
