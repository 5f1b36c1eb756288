package orderproofs

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryInterface defines the contract for proof persistence
type RepositoryInterface interface {
	FindByOrder(ctx context.Context, orderID string) (*OrderProof, error)
	GetByID(ctx context.Context, id uuid.UUID) (*OrderProof, error)
	List(ctx context.Context, limit, offset int) ([]*OrderProof, int64, error)

	// Upsert creates the order's proof or merges into the existing one in a
	// single statement. A revision_requested status bumps revision_count.
	Upsert(ctx context.Context, in UpsertInput) (*OrderProof, error)

	// CreatePending inserts a pending proof unless the order already has one
	CreatePending(ctx context.Context, orderID, customerNotes string) (bool, error)

	SetStatus(ctx context.Context, id uuid.UUID, status ProofStatus) (*OrderProof, error)
	RequestRevision(ctx context.Context, id uuid.UUID, customerNotes *string) (*OrderProof, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*OrderProof, error)
}
