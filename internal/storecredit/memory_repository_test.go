package storecredit

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/engraving-commerce/pkg/money"
)

// memoryRepository is a RepositoryInterface backed by maps, with the same
// clamping and locking guarantees as the SQL statements.
type memoryRepository struct {
	mu           sync.Mutex
	accounts     map[string]*StoreCredit
	reservations map[uuid.UUID]*Reservation
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		accounts:     make(map[string]*StoreCredit),
		reservations: make(map[uuid.UUID]*Reservation),
	}
}

func (m *memoryRepository) GetByCustomer(ctx context.Context, customerID string) (*StoreCredit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[customerID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryRepository) GetOrCreate(ctx context.Context, customerID, currency string) (*StoreCredit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.account(customerID, currency)
	cp := *a
	return &cp, nil
}

func (m *memoryRepository) account(customerID, currency string) *StoreCredit {
	a, ok := m.accounts[customerID]
	if !ok {
		a = &StoreCredit{ID: uuid.New(), CustomerID: customerID, CurrencyCode: currency, CreatedAt: time.Now()}
		m.accounts[customerID] = a
	}
	return a
}

func (m *memoryRepository) Credit(ctx context.Context, customerID string, amount int64, currency string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.account(customerID, currency)
	if !strings.EqualFold(a.CurrencyCode, currency) {
		return 0, money.ErrCurrencyMismatch
	}
	a.Balance += amount
	return a.Balance, nil
}

func (m *memoryRepository) Debit(ctx context.Context, customerID string, requested int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.debit(customerID, requested), nil
}

func (m *memoryRepository) debit(customerID string, requested int64) int64 {
	a, ok := m.accounts[customerID]
	if !ok {
		return 0
	}
	applied := requested
	if a.Balance < applied {
		applied = a.Balance
	}
	a.Balance -= applied
	return applied
}

func (m *memoryRepository) HoldForCart(ctx context.Context, r *Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reservations {
		if existing.CartID == r.CartID && existing.Status == ReservationHeld {
			existing.Status = ReservationReleased
		}
	}
	cp := *r
	m.reservations[r.ID] = &cp
	return nil
}

func (m *memoryRepository) GetHeldByCart(ctx context.Context, cartID string) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.CartID == cartID && r.Status == ReservationHeld {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryRepository) GetCommittedByOrder(ctx context.Context, orderID string) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.OrderID != nil && *r.OrderID == orderID && r.Status == ReservationCommitted {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryRepository) Commit(ctx context.Context, id uuid.UUID, orderID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok || r.Status != ReservationHeld {
		return 0, ErrReservationNotHeld
	}
	applied := m.debit(r.CustomerID, r.Amount)
	r.Status = ReservationCommitted
	r.OrderID = &orderID
	r.AppliedAmount = &applied
	return applied, nil
}

func (m *memoryRepository) Refund(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok || r.Status != ReservationCommitted {
		return 0, nil
	}
	var refunded int64
	if r.AppliedAmount != nil {
		refunded = *r.AppliedAmount
		m.account(r.CustomerID, r.CurrencyCode).Balance += refunded
	}
	r.Status = ReservationReleased
	return refunded, nil
}

func (m *memoryRepository) Release(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok || r.Status != ReservationHeld {
		return false, nil
	}
	r.Status = ReservationReleased
	return true, nil
}

func (m *memoryRepository) ReleaseHeldBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.reservations {
		if r.Status == ReservationHeld && r.CreatedAt.Before(cutoff) {
			r.Status = ReservationReleased
			n++
		}
	}
	return n, nil
}

func (m *memoryRepository) reservation(id uuid.UUID) Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.reservations[id]
}
