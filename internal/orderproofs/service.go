package orderproofs

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/engraving-commerce/internal/notifications"
	"github.com/richxcame/engraving-commerce/internal/orders"
	"github.com/richxcame/engraving-commerce/pkg/common"
	"github.com/richxcame/engraving-commerce/pkg/config"
	"github.com/richxcame/engraving-commerce/pkg/logger"
	"github.com/richxcame/engraving-commerce/pkg/storage"
	"go.uber.org/zap"
)

const defaultUploadURLExpiry = 15 * time.Minute

// Mailer tells customers a proof is ready
type Mailer interface {
	SendProofReadyEmail(ctx context.Context, msg notifications.ProofReadyEmail) error
}

// Service implements the proof approval workflow
type Service struct {
	repo    RepositoryInterface
	orders  orders.Reader
	storage storage.Storage
	mailer  Mailer
	cfg     config.StorageConfig
}

// NewService creates a new proof service. store and mailer may be nil.
func NewService(repo RepositoryInterface, reader orders.Reader, store storage.Storage, mailer Mailer, cfg config.StorageConfig) *Service {
	if cfg.UploadURLExpiry <= 0 {
		cfg.UploadURLExpiry = defaultUploadURLExpiry
	}
	return &Service{repo: repo, orders: reader, storage: store, mailer: mailer, cfg: cfg}
}

// FindByOrder returns the order's proof, nil when none exists
func (s *Service) FindByOrder(ctx context.Context, orderID string) (*OrderProof, error) {
	proof, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, common.NewInternalError("failed to fetch proof", err)
	}
	return proof, nil
}

// Get returns a proof or a not-found error
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*OrderProof, error) {
	proof, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, common.NewInternalError("failed to fetch proof", err)
	}
	if proof == nil {
		return nil, common.NewNotFoundError("Proof not found", nil)
	}
	return proof, nil
}

// List returns a page of proofs
func (s *Service) List(ctx context.Context, limit, offset int) ([]*OrderProof, int64, error) {
	proofs, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list proofs", err)
	}
	return proofs, total, nil
}

// Upsert creates the order's proof or merges into it. When the image is
// new the customer is emailed a review link.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (*OrderProof, error) {
	in.OrderID = strings.TrimSpace(in.OrderID)
	if in.OrderID == "" {
		return nil, common.NewBadRequestError("order_id is required", nil)
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, common.NewBadRequestError("invalid proof status", nil)
	}

	previous, err := s.repo.FindByOrder(ctx, in.OrderID)
	if err != nil {
		return nil, common.NewInternalError("failed to fetch proof", err)
	}

	proof, err := s.repo.Upsert(ctx, in)
	if err != nil {
		return nil, common.NewInternalError("failed to save proof", err)
	}

	logger.WithContext(ctx).Info("Order proof saved",
		zap.String("order_id", proof.OrderID),
		zap.String("status", string(proof.Status)),
		zap.Int("revision_count", proof.RevisionCount),
	)

	if in.ProofImageURL != "" && (previous == nil || previous.ProofImageURL != in.ProofImageURL) {
		s.notifyProofReady(ctx, proof)
	}
	return proof, nil
}

// Approve marks the proof approved. Any prior status may be approved.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*OrderProof, error) {
	proof, err := s.repo.SetStatus(ctx, id, ProofStatusApproved)
	if err != nil {
		return nil, common.NewInternalError("failed to approve proof", err)
	}
	if proof == nil {
		return nil, common.NewNotFoundError("Proof not found", nil)
	}
	logger.WithContext(ctx).Info("Order proof approved", zap.String("order_id", proof.OrderID))
	return proof, nil
}

// RequestRevision sends the proof back for changes and counts the round.
// customerNotes replaces the stored notes when given.
func (s *Service) RequestRevision(ctx context.Context, id uuid.UUID, customerNotes *string) (*OrderProof, error) {
	proof, err := s.repo.RequestRevision(ctx, id, customerNotes)
	if err != nil {
		return nil, common.NewInternalError("failed to request revision", err)
	}
	if proof == nil {
		return nil, common.NewNotFoundError("Proof not found", nil)
	}
	logger.WithContext(ctx).Info("Order proof revision requested",
		zap.String("order_id", proof.OrderID),
		zap.Int("revision_count", proof.RevisionCount),
	)
	return proof, nil
}

// Update applies an admin patch. Approval and revision requests go through
// their dedicated transitions.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*OrderProof, error) {
	if in.Status != nil {
		switch *in.Status {
		case ProofStatusApproved:
			if _, err := s.Approve(ctx, id); err != nil {
				return nil, err
			}
			in.Status = nil
		case ProofStatusRevisionRequested:
			if _, err := s.RequestRevision(ctx, id, in.CustomerNotes); err != nil {
				return nil, err
			}
			in.Status = nil
			in.CustomerNotes = nil
		case ProofStatusPending:
		default:
			return nil, common.NewBadRequestError("invalid proof status", nil)
		}
	}

	proof, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, common.NewInternalError("failed to update proof", err)
	}
	if proof == nil {
		return nil, common.NewNotFoundError("Proof not found", nil)
	}
	return proof, nil
}

// OpenPending creates a pending proof awaiting an image, unless the order
// already has one.
func (s *Service) OpenPending(ctx context.Context, orderID, customerNotes string) (bool, error) {
	created, err := s.repo.CreatePending(ctx, orderID, customerNotes)
	if err != nil {
		return false, common.NewInternalError("failed to create proof", err)
	}
	return created, nil
}

// CreateUploadURL presigns a direct upload for a proof image
func (s *Service) CreateUploadURL(ctx context.Context, orderID, filename, contentType string) (*UploadURLResponse, error) {
	if s.storage == nil {
		return nil, common.NewAppError(http.StatusServiceUnavailable, "proof storage is not configured", nil)
	}
	if contentType == "" {
		contentType = storage.GetMimeTypeFromExtension(filename)
	}
	if !storage.ValidateMimeType(contentType, s.cfg.AllowedTypes) {
		return nil, common.NewBadRequestError("unsupported file type", nil)
	}

	key := storage.GenerateProofKey(orderID, filename)
	presigned, err := s.storage.GetPresignedUploadURL(ctx, key, contentType, s.cfg.UploadURLExpiry)
	if err != nil {
		return nil, common.NewInternalError("failed to generate upload URL", err)
	}
	return newUploadURLResponse(presigned), nil
}

// ========================================
// CUSTOMER ACCESS
// ========================================

// authorizeOrder checks that orderID exists and belongs to customerID
func (s *Service) authorizeOrder(ctx context.Context, orderID, customerID string) (*orders.Order, error) {
	if customerID == "" {
		return nil, common.NewUnauthorizedError("Authentication required")
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, common.NewInternalError("failed to fetch order", err)
	}
	if order == nil {
		return nil, common.NewNotFoundError("Order not found", nil)
	}
	if !order.BelongsTo(customerID) {
		return nil, common.NewForbiddenError("Access denied: Order does not belong to authenticated customer")
	}
	return order, nil
}

// FindForCustomer returns the proof of an order owned by customerID
func (s *Service) FindForCustomer(ctx context.Context, orderID, customerID string) (*OrderProof, error) {
	if _, err := s.authorizeOrder(ctx, orderID, customerID); err != nil {
		return nil, err
	}
	proof, err := s.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if proof == nil {
		return nil, common.NewNotFoundError("Proof not found", nil)
	}
	return proof, nil
}

// ActForCustomer applies a customer's approve or request_revision decision
func (s *Service) ActForCustomer(ctx context.Context, orderID, customerID, action string, customerNotes *string) (*OrderProof, error) {
	proof, err := s.FindForCustomer(ctx, orderID, customerID)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionApprove:
		return s.Approve(ctx, proof.ID)
	case ActionRequestRevision:
		return s.RequestRevision(ctx, proof.ID, customerNotes)
	default:
		return nil, common.NewBadRequestError("Invalid action. Use 'approve' or 'request_revision'", nil)
	}
}

func (s *Service) notifyProofReady(ctx context.Context, proof *OrderProof) {
	if s.mailer == nil {
		return
	}

	order, err := s.orders.GetOrder(ctx, proof.OrderID)
	if err != nil || order == nil || order.Email == nil || *order.Email == "" {
		logger.WithContext(ctx).Warn("Proof ready email skipped, no order email",
			zap.String("order_id", proof.OrderID),
			zap.Error(err),
		)
		return
	}

	err = s.mailer.SendProofReadyEmail(ctx, notifications.ProofReadyEmail{
		To:           *order.Email,
		CustomerName: order.CustomerName(),
		OrderID:      order.ID,
		ProofURL:     proof.ProofImageURL,
	})
	if err != nil {
		logger.WithContext(ctx).Warn("Failed to send proof ready email",
			zap.String("order_id", proof.OrderID),
			zap.Error(err),
		)
	}
}
