package giftcards

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepository is a RepositoryInterface backed by maps. Store credit
// balances live alongside the cards so redemption stays atomic.
type memoryRepository struct {
	mu       sync.Mutex
	cards    map[uuid.UUID]*GiftCard
	balances map[string]int64
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		cards:    make(map[uuid.UUID]*GiftCard),
		balances: make(map[string]int64),
	}
}

func (m *memoryRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepository) CreateCard(ctx context.Context, card *GiftCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *card
	m.cards[card.ID] = &cp
	return nil
}

func (m *memoryRepository) GetCardByCode(ctx context.Context, code string) (*GiftCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryRepository) GetCardByID(ctx context.Context, id uuid.UUID) (*GiftCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cards[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryRepository) ListCards(ctx context.Context, filter ListFilter, limit, offset int) ([]*GiftCard, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*GiftCard
	for _, c := range m.cards {
		if filter.ID != nil && c.ID != *filter.ID {
			continue
		}
		if filter.CustomerID != "" && (c.CustomerID == nil || *c.CustomerID != filter.CustomerID) {
			continue
		}
		if filter.OrderID != "" && (c.OrderID == nil || *c.OrderID != filter.OrderID) {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		cp := *c
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	if offset >= len(matched) {
		return []*GiftCard{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *memoryRepository) CountCardsForLineItem(ctx context.Context, orderID, lineItemID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.cards {
		if c.OrderID != nil && *c.OrderID == orderID && c.LineItemID != nil && *c.LineItemID == lineItemID {
			n++
		}
	}
	return n, nil
}

func (m *memoryRepository) ListUndelivered(ctx context.Context, orderID string) ([]*GiftCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*GiftCard
	for _, c := range m.cards {
		if c.OrderID != nil && *c.OrderID == orderID && c.DeliveredAt == nil {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryRepository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cards[id]; ok && c.DeliveredAt == nil {
		now := time.Now()
		c.DeliveredAt = &now
	}
	return nil
}

func (m *memoryRepository) RedeemCard(ctx context.Context, cardID uuid.UUID, customerID string) (*GiftCard, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[cardID]
	if !ok || c.Status == CardStatusRedeemed {
		return nil, 0, ErrNotRedeemable
	}
	now := time.Now()
	c.Status = CardStatusRedeemed
	c.RedeemedAt = &now
	c.RedeemedByCustomerID = &customerID
	m.balances[customerID] += c.Value

	cp := *c
	return &cp, m.balances[customerID], nil
}

func (m *memoryRepository) MarkAbandoned(ctx context.Context, purchasedBefore time.Time) ([]*GiftCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var marked []*GiftCard
	for _, c := range m.cards {
		if c.Status == CardStatusUnused && c.AbandonedAt == nil && c.PurchasedAt.Before(purchasedBefore) {
			c.AbandonedAt = &now
			cp := *c
			marked = append(marked, &cp)
		}
	}
	return marked, nil
}

func (m *memoryRepository) GetUnreportedAbandoned(ctx context.Context) ([]*GiftCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*GiftCard
	for _, c := range m.cards {
		if c.AbandonedAt != nil && !c.AbandonedReported {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memoryRepository) MarkAbandonedReported(ctx context.Context, ids []uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if c, ok := m.cards[id]; ok && c.AbandonedAt != nil && !c.AbandonedReported {
			c.AbandonedReported = true
			n++
		}
	}
	return n, nil
}

// seed stores a card directly, bypassing Create
func (m *memoryRepository) seed(card *GiftCard) *GiftCard {
	m.mu.Lock()
	defer m.mu.Unlock()
	if card.ID == uuid.Nil {
		card.ID = uuid.New()
	}
	if card.Status == "" {
		card.Status = CardStatusUnused
	}
	if card.Type == "" {
		card.Type = CardTypeDigital
	}
	if card.CurrencyCode == "" {
		card.CurrencyCode = "usd"
	}
	if card.PurchasedAt.IsZero() {
		card.PurchasedAt = time.Now()
	}
	cp := *card
	m.cards[card.ID] = &cp
	return card
}
