package orderproofs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/richxcame/engraving-commerce/pkg/database"
)

// Repository handles order proof data access
type Repository struct {
	db database.Pool
}

// NewRepository creates a new order proof repository
func NewRepository(db database.Pool) *Repository {
	return &Repository{db: db}
}

const proofColumns = `id, order_id, proof_image_url, status, revision_count,
	customer_notes, admin_notes, metadata, created_at, updated_at`

func scanProof(row pgx.Row) (*OrderProof, error) {
	p := &OrderProof{}
	err := row.Scan(
		&p.ID, &p.OrderID, &p.ProofImageURL, &p.Status, &p.RevisionCount,
		&p.CustomerNotes, &p.AdminNotes, &p.Metadata, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanOptional(row pgx.Row) (*OrderProof, error) {
	p, err := scanProof(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// FindByOrder returns the order's proof, nil when none exists
func (r *Repository) FindByOrder(ctx context.Context, orderID string) (*OrderProof, error) {
	query := `SELECT ` + proofColumns + ` FROM order_proofs WHERE order_id = $1`
	return scanOptional(r.db.QueryRow(ctx, query, orderID))
}

// GetByID returns a proof, nil when not found
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*OrderProof, error) {
	query := `SELECT ` + proofColumns + ` FROM order_proofs WHERE id = $1`
	return scanOptional(r.db.QueryRow(ctx, query, id))
}

// List returns proofs newest first
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*OrderProof, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM order_proofs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count proofs: %w", err)
	}

	query := `SELECT ` + proofColumns + ` FROM order_proofs ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list proofs: %w", err)
	}
	defer rows.Close()

	proofs := make([]*OrderProof, 0)
	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan proof: %w", err)
		}
		proofs = append(proofs, p)
	}
	return proofs, total, rows.Err()
}

// Upsert inserts the proof or merges into the existing row for the order.
// The increment is computed from the row under the conflict lock, so two
// concurrent revision requests both count.
func (r *Repository) Upsert(ctx context.Context, in UpsertInput) (*OrderProof, error) {
	var status *string
	if in.Status != nil {
		s := string(*in.Status)
		status = &s
	}

	query := `
		INSERT INTO order_proofs (
			id, order_id, proof_image_url, status, revision_count,
			customer_notes, admin_notes, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, COALESCE($4::text, 'pending'), 0, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (order_id) DO UPDATE SET
			proof_image_url = COALESCE(NULLIF(EXCLUDED.proof_image_url, ''), order_proofs.proof_image_url),
			status          = COALESCE($4::text, order_proofs.status),
			revision_count  = order_proofs.revision_count +
			                  CASE WHEN $4::text = 'revision_requested' THEN 1 ELSE 0 END,
			customer_notes  = COALESCE(EXCLUDED.customer_notes, order_proofs.customer_notes),
			admin_notes     = COALESCE(EXCLUDED.admin_notes, order_proofs.admin_notes),
			metadata        = COALESCE(EXCLUDED.metadata, order_proofs.metadata),
			updated_at      = NOW()
		RETURNING ` + proofColumns

	return scanProof(r.db.QueryRow(ctx, query,
		uuid.New(), in.OrderID, in.ProofImageURL, status,
		in.CustomerNotes, in.AdminNotes, in.Metadata,
	))
}

// CreatePending opens a pending proof with no image yet
func (r *Repository) CreatePending(ctx context.Context, orderID, customerNotes string) (bool, error) {
	query := `
		INSERT INTO order_proofs (id, order_id, proof_image_url, status, revision_count, customer_notes, created_at, updated_at)
		VALUES ($1, $2, '', 'pending', 0, $3, NOW(), NOW())
		ON CONFLICT (order_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, uuid.New(), orderID, customerNotes)
	if err != nil {
		return false, fmt.Errorf("failed to create pending proof: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetStatus overwrites the status. Returns nil when the proof does not exist.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status ProofStatus) (*OrderProof, error) {
	query := `
		UPDATE order_proofs SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + proofColumns
	return scanOptional(r.db.QueryRow(ctx, query, id, status))
}

// RequestRevision moves the proof to revision_requested and bumps the
// counter in the same statement.
func (r *Repository) RequestRevision(ctx context.Context, id uuid.UUID, customerNotes *string) (*OrderProof, error) {
	query := `
		UPDATE order_proofs
		SET status = 'revision_requested',
			revision_count = revision_count + 1,
			customer_notes = COALESCE($2, customer_notes),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + proofColumns
	return scanOptional(r.db.QueryRow(ctx, query, id, customerNotes))
}

// Update patches the given fields
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*OrderProof, error) {
	var status *string
	if in.Status != nil {
		s := string(*in.Status)
		status = &s
	}

	query := `
		UPDATE order_proofs
		SET status = COALESCE($2::text, status),
			proof_image_url = COALESCE($3, proof_image_url),
			customer_notes = COALESCE($4::text, customer_notes),
			admin_notes = COALESCE($5, admin_notes),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + proofColumns
	return scanOptional(r.db.QueryRow(ctx, query, id, status, in.ProofImageURL, in.CustomerNotes, in.AdminNotes))
}
