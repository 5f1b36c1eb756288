package orderproofs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepository is a RepositoryInterface backed by a map keyed by order
type memoryRepository struct {
	mu     sync.Mutex
	proofs map[string]*OrderProof
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{proofs: make(map[string]*OrderProof)}
}

func (m *memoryRepository) byID(id uuid.UUID) *OrderProof {
	for _, p := range m.proofs {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func clone(p *OrderProof) *OrderProof {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func (m *memoryRepository) FindByOrder(ctx context.Context, orderID string) (*OrderProof, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.proofs[orderID]), nil
}

func (m *memoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*OrderProof, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.byID(id)), nil
}

func (m *memoryRepository) List(ctx context.Context, limit, offset int) ([]*OrderProof, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*OrderProof, 0, len(m.proofs))
	for _, p := range m.proofs {
		all = append(all, clone(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].OrderID < all[j].OrderID })
	total := int64(len(all))
	if offset >= len(all) {
		return []*OrderProof{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *memoryRepository) Upsert(ctx context.Context, in UpsertInput) (*OrderProof, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()

	p, ok := m.proofs[in.OrderID]
	if !ok {
		status := ProofStatusPending
		if in.Status != nil {
			status = *in.Status
		}
		p = &OrderProof{
			ID: uuid.New(), OrderID: in.OrderID, ProofImageURL: in.ProofImageURL, Status: status,
			CustomerNotes: in.CustomerNotes, AdminNotes: in.AdminNotes, Metadata: in.Metadata,
			CreatedAt: now, UpdatedAt: now,
		}
		m.proofs[in.OrderID] = p
		return clone(p), nil
	}

	if in.ProofImageURL != "" {
		p.ProofImageURL = in.ProofImageURL
	}
	if in.Status != nil {
		if *in.Status == ProofStatusRevisionRequested {
			p.RevisionCount++
		}
		p.Status = *in.Status
	}
	if in.CustomerNotes != nil {
		p.CustomerNotes = in.CustomerNotes
	}
	if in.AdminNotes != nil {
		p.AdminNotes = in.AdminNotes
	}
	if in.Metadata != nil {
		p.Metadata = in.Metadata
	}
	p.UpdatedAt = now
	return clone(p), nil
}

func (m *memoryRepository) CreatePending(ctx context.Context, orderID, customerNotes string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.proofs[orderID]; ok {
		return false, nil
	}
	now := time.Now()
	m.proofs[orderID] = &OrderProof{
		ID: uuid.New(), OrderID: orderID, Status: ProofStatusPending,
		CustomerNotes: &customerNotes, CreatedAt: now, UpdatedAt: now,
	}
	return true, nil
}

func (m *memoryRepository) SetStatus(ctx context.Context, id uuid.UUID, status ProofStatus) (*OrderProof, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byID(id)
	if p == nil {
		return nil, nil
	}
	p.Status = status
	return clone(p), nil
}

func (m *memoryRepository) RequestRevision(ctx context.Context, id uuid.UUID, customerNotes *string) (*OrderProof, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byID(id)
	if p == nil {
		return nil, nil
	}
	p.Status = ProofStatusRevisionRequested
	p.RevisionCount++
	if customerNotes != nil {
		p.CustomerNotes = customerNotes
	}
	return clone(p), nil
}

func (m *memoryRepository) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*OrderProof, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byID(id)
	if p == nil {
		return nil, nil
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.ProofImageURL != nil {
		p.ProofImageURL = *in.ProofImageURL
	}
	if in.CustomerNotes != nil {
		p.CustomerNotes = in.CustomerNotes
	}
	if in.AdminNotes != nil {
		p.AdminNotes = in.AdminNotes
	}
	return clone(p), nil
}
