package orderproofs

import (
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/engraving-commerce/pkg/storage"
)

// ProofStatus represents where a proof stands in customer review
type ProofStatus string

const (
	ProofStatusPending           ProofStatus = "pending"
	ProofStatusApproved          ProofStatus = "approved"
	ProofStatusRevisionRequested ProofStatus = "revision_requested"
)

// Valid reports whether s is a known status
func (s ProofStatus) Valid() bool {
	switch s {
	case ProofStatusPending, ProofStatusApproved, ProofStatusRevisionRequested:
		return true
	}
	return false
}

// Store actions
const (
	ActionApprove         = "approve"
	ActionRequestRevision = "request_revision"
)

// OrderProof is the design proof for an order's engraving. One per order.
type OrderProof struct {
	ID            uuid.UUID              `json:"id" db:"id"`
	OrderID       string                 `json:"order_id" db:"order_id"`
	ProofImageURL string                 `json:"proof_image_url" db:"proof_image_url"`
	Status        ProofStatus            `json:"status" db:"status"`
	RevisionCount int                    `json:"revision_count" db:"revision_count"`
	CustomerNotes *string                `json:"customer_notes,omitempty" db:"customer_notes"`
	AdminNotes    *string                `json:"admin_notes,omitempty" db:"admin_notes"`
	Metadata      map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt     time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at" db:"updated_at"`
}

// UpsertInput creates or merges the proof for OrderID. Nil fields keep the
// stored value.
type UpsertInput struct {
	OrderID       string
	ProofImageURL string
	Status        *ProofStatus
	CustomerNotes *string
	AdminNotes    *string
	Metadata      map[string]interface{}
}

// UpdateInput patches a proof by id. Nil fields are left alone.
type UpdateInput struct {
	Status        *ProofStatus
	ProofImageURL *string
	CustomerNotes *string
	AdminNotes    *string
}

// ========================================
// REQUEST/RESPONSE TYPES
// ========================================

// UpsertProofRequest is the admin create-or-update payload
type UpsertProofRequest struct {
	OrderID       string                 `json:"order_id" binding:"required"`
	ProofImageURL string                 `json:"proof_image_url" validate:"omitempty,url"`
	Status        *string                `json:"status,omitempty" validate:"omitempty,proof_status"`
	CustomerNotes *string                `json:"customer_notes,omitempty"`
	AdminNotes    *string                `json:"admin_notes,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// UpdateProofRequest is the admin PATCH payload
type UpdateProofRequest struct {
	Status        *string `json:"status,omitempty" validate:"omitempty,proof_status"`
	ProofImageURL *string `json:"proof_image_url,omitempty" validate:"omitempty,url"`
	CustomerNotes *string `json:"customer_notes,omitempty"`
	AdminNotes    *string `json:"admin_notes,omitempty"`
}

// StoreActionRequest is a customer's review decision
type StoreActionRequest struct {
	OrderID       string  `json:"order_id"`
	Action        string  `json:"action"`
	CustomerNotes *string `json:"customer_notes,omitempty"`
}

// UploadURLRequest asks for a presigned proof image upload
type UploadURLRequest struct {
	OrderID     string `json:"order_id" binding:"required"`
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// UploadURLResponse tells the admin UI where to PUT the image and what URL
// to store on the proof afterwards.
type UploadURLResponse struct {
	UploadURL     string            `json:"upload_url"`
	Method        string            `json:"method"`
	Headers       map[string]string `json:"headers,omitempty"`
	ExpiresAt     time.Time         `json:"expires_at"`
	FileKey       string            `json:"file_key"`
	ProofImageURL string            `json:"proof_image_url"`
}

func newUploadURLResponse(p *storage.PresignedURLResult) *UploadURLResponse {
	return &UploadURLResponse{
		UploadURL:     p.URL,
		Method:        p.Method,
		Headers:       p.Headers,
		ExpiresAt:     p.ExpiresAt,
		FileKey:       p.Key,
		ProofImageURL: p.PublicURL,
	}
}
