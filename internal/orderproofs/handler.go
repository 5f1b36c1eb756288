package orderproofs

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/engraving-commerce/pkg/common"
	"github.com/richxcame/engraving-commerce/pkg/middleware"
	"github.com/richxcame/engraving-commerce/pkg/pagination"
	"github.com/richxcame/engraving-commerce/pkg/validation"
)

// Handler handles HTTP requests for order proofs
type Handler struct {
	service *Service
}

// NewHandler creates a new order proof handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ========================================
// STORE ENDPOINTS
// ========================================

// GetForCustomer returns the proof for one of the caller's orders
// GET /api/v1/store/order-proofs?order_id=
func (h *Handler) GetForCustomer(c *gin.Context) {
	orderID := strings.TrimSpace(c.Query("order_id"))
	if orderID == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "order_id is required")
		return
	}

	customerID, _ := middleware.GetUserID(c)
	proof, err := h.service.FindForCustomer(c.Request.Context(), orderID, customerID)
	if err != nil {
		common.HandleServiceError(c, err, "Failed to fetch proof")
		return
	}

	common.SuccessResponse(c, gin.H{"order_proof": proof})
}

// ActForCustomer approves a proof or asks for a revision
// POST /api/v1/store/order-proofs
func (h *Handler) ActForCustomer(c *gin.Context) {
	var req StoreActionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" || req.Action == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "order_id and action are required")
		return
	}

	customerID, _ := middleware.GetUserID(c)
	proof, err := h.service.ActForCustomer(c.Request.Context(), req.OrderID, customerID, req.Action, req.CustomerNotes)
	if err != nil {
		common.HandleServiceError(c, err, "Failed to update proof")
		return
	}

	common.SuccessResponse(c, gin.H{"order_proof": proof})
}

// ========================================
// ADMIN ENDPOINTS
// ========================================

// Upsert creates or updates an order's proof
// POST /api/v1/admin/order-proofs
func (h *Handler) Upsert(c *gin.Context) {
	var req UpsertProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "order_id is required")
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		middleware.RespondWithValidationError(c, err)
		return
	}

	in := UpsertInput{
		OrderID:       req.OrderID,
		ProofImageURL: req.ProofImageURL,
		CustomerNotes: req.CustomerNotes,
		AdminNotes:    req.AdminNotes,
		Metadata:      req.Metadata,
	}
	if req.Status != nil {
		status := ProofStatus(*req.Status)
		in.Status = &status
	}

	proof, err := h.service.Upsert(c.Request.Context(), in)
	if err != nil {
		common.HandleServiceError(c, err, "Failed to save proof")
		return
	}

	common.SuccessResponse(c, gin.H{"order_proof": proof})
}

// List returns one order's proof when order_id is given, otherwise a page
// GET /api/v1/admin/order-proofs
func (h *Handler) List(c *gin.Context) {
	if orderID := c.Query("order_id"); orderID != "" {
		proof, err := h.service.FindByOrder(c.Request.Context(), orderID)
		if err != nil {
			common.HandleServiceError(c, err, "Failed to fetch proof")
			return
		}
		common.SuccessResponse(c, gin.H{"order_proof": proof})
		return
	}

	params := pagination.ParseParams(c)
	proofs, total, err := h.service.List(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		common.HandleServiceError(c, err, "Failed to list proofs")
		return
	}

	common.SuccessResponseWithMeta(c, gin.H{"order_proofs": proofs}, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// Update patches a proof
// PATCH /api/v1/admin/order-proofs/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid proof id")
		return
	}

	var req UpdateProofRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	in := UpdateInput{
		ProofImageURL: req.ProofImageURL,
		CustomerNotes: req.CustomerNotes,
		AdminNotes:    req.AdminNotes,
	}
	if req.Status != nil {
		status := ProofStatus(*req.Status)
		in.Status = &status
	}

	proof, err := h.service.Update(c.Request.Context(), id, in)
	if err != nil {
		common.HandleServiceError(c, err, "Failed to update proof")
		return
	}

	common.SuccessResponse(c, gin.H{"order_proof": proof})
}

// CreateUploadURL presigns a proof image upload
// POST /api/v1/admin/order-proofs/upload-url
func (h *Handler) CreateUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "order_id, filename and content_type are required")
		return
	}

	resp, err := h.service.CreateUploadURL(c.Request.Context(), req.OrderID, req.Filename, req.ContentType)
	if err != nil {
		common.HandleServiceError(c, err, "Failed to generate upload URL")
		return
	}

	common.SuccessResponse(c, resp)
}

// RegisterStoreRoutes registers customer routes on an authenticated group
func (h *Handler) RegisterStoreRoutes(store *gin.RouterGroup) {
	proofs := store.Group("/order-proofs")
	{
		proofs.GET("", h.GetForCustomer)
		proofs.POST("", h.ActForCustomer)
	}
}

// RegisterAdminRoutes registers admin routes on an admin-only group
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	proofs := admin.Group("/order-proofs")
	{
		proofs.GET("", h.List)
		proofs.POST("", h.Upsert)
		proofs.POST("/upload-url", h.CreateUploadURL)
		proofs.PATCH("/:id", h.Update)
	}
}
