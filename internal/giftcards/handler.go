package giftcards

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/engraving-commerce/pkg/common"
	"github.com/richxcame/engraving-commerce/pkg/middleware"
	"github.com/richxcame/engraving-commerce/pkg/money"
	"github.com/richxcame/engraving-commerce/pkg/pagination"
	"github.com/richxcame/engraving-commerce/pkg/validation"
)

// Handler handles HTTP requests for gift cards
type Handler struct {
	service     *Service
	coordinator *Coordinator
	adminRole   string
}

// NewHandler creates a new gift card handler
func NewHandler(service *Service, coordinator *Coordinator, adminRole string) *Handler {
	return &Handler{service: service, coordinator: coordinator, adminRole: adminRole}
}

// ========================================
// STORE ENDPOINTS
// ========================================

// Lookup returns the shopper-visible view of a card
// GET /api/v1/store/gift-cards?code=
func (h *Handler) Lookup(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "code is required")
		return
	}

	card, err := h.service.GetByCode(c.Request.Context(), code)
	if err != nil {
		common.HandleServiceError(c, err, "Failed to fetch gift card")
		return
	}

	common.SuccessResponse(c, LookupResponse{
		Code:         card.Code,
		Value:        card.Value,
		CurrencyCode: card.CurrencyCode,
		Status:       card.Status,
		Type:         card.Type,
	})
}

// Redeem converts a card into the caller's store credit
// POST /api/v1/store/gift-cards/redeem
func (h *Handler) Redeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "code is required")
		return
	}

	customerID, appErr := middleware.ResolveCustomerID(c, req.CustomerID, h.adminRole)
	if appErr != nil {
		common.AppErrorResponse(c, appErr)
		return
	}

	result, err := h.coordinator.RedeemByCode(c.Request.Context(), req.Code, customerID)
	if err != nil {
		common.HandleServiceError(c, err, "Failed to redeem gift card")
		return
	}

	common.SuccessResponse(c, RedeemResponse{
		Message: "Gift card redeemed successfully",
		GiftCard: RedeemedCard{
			Code:  result.GiftCard.Code,
			Value: result.GiftCard.Value,
		},
		StoreCredit: result.StoreCreditBalance,
	})
}

// ========================================
// ADMIN ENDPOINTS
// ========================================

// List returns a page of cards
// GET /api/v1/admin/gift-cards
func (h *Handler) List(c *gin.Context) {
	params := pagination.ParseParams(c)

	filter := ListFilter{
		CustomerID: c.Query("customer_id"),
		OrderID:    c.Query("order_id"),
		Status:     CardStatus(c.Query("status")),
	}
	if raw := c.Query("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "invalid gift card id")
			return
		}
		filter.ID = &id
	}

	cards, total, err := h.service.List(c.Request.Context(), filter, params.Limit, params.Offset)
	if err != nil {
		common.HandleServiceError(c, err, "Failed to list gift cards")
		return
	}

	common.SuccessResponseWithMeta(c, gin.H{"gift_cards": cards}, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// Create issues a card by hand
// POST /api/v1/admin/gift-cards
func (h *Handler) Create(c *gin.Context) {
	var req CreateGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "value and type are required")
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		middleware.RespondWithValidationError(c, err)
		return
	}

	value, err := money.ToMinor(*req.Value)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "value is out of range")
		return
	}

	card, err := h.service.Create(c.Request.Context(), CreateGiftCardInput{
		Value:             value,
		CurrencyCode:      req.CurrencyCode,
		Type:              CardType(req.Type),
		CustomerID:        req.CustomerID,
		OrderID:           req.OrderID,
		LineItemID:        req.LineItemID,
		EngravingText:     req.EngravingText,
		EngravingMetadata: req.EngravingMetadata,
	})
	if err != nil {
		common.HandleServiceError(c, err, "Failed to create gift card")
		return
	}

	common.CreatedResponse(c, gin.H{"gift_card": card})
}

// Get returns one card
// GET /api/v1/admin/gift-cards/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid gift card id")
		return
	}

	card, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		common.HandleServiceError(c, err, "Failed to fetch gift card")
		return
	}

	common.SuccessResponse(c, gin.H{"gift_card": card})
}

// RedeemForCustomer redeems a card on a customer's behalf
// POST /api/v1/admin/gift-cards/:id/redeem
func (h *Handler) RedeemForCustomer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid gift card id")
		return
	}

	var req AdminRedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "customer_id is required")
		return
	}

	result, err := h.coordinator.RedeemByID(c.Request.Context(), id, req.CustomerID)
	if err != nil {
		common.HandleServiceError(c, err, "Failed to redeem gift card")
		return
	}

	common.SuccessResponse(c, result)
}

// Abandoned lists abandoned cards not yet reported
// GET /api/v1/admin/gift-cards/abandoned
func (h *Handler) Abandoned(c *gin.Context) {
	cards, err := h.service.UnreportedAbandoned(c.Request.Context())
	if err != nil {
		common.HandleServiceError(c, err, "Failed to list abandoned gift cards")
		return
	}

	common.SuccessResponse(c, BuildAbandonedReport(cards))
}

// ReportAbandoned flags abandoned cards as reported
// POST /api/v1/admin/gift-cards/abandoned/report
func (h *Handler) ReportAbandoned(c *gin.Context) {
	var req ReportAbandonedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "ids are required")
		return
	}

	n, err := h.service.MarkAbandonedReported(c.Request.Context(), req.IDs)
	if err != nil {
		common.HandleServiceError(c, err, "Failed to mark gift cards reported")
		return
	}

	common.SuccessResponse(c, gin.H{"reported": n})
}

// RegisterStoreRoutes registers shopper routes on an authenticated group
func (h *Handler) RegisterStoreRoutes(store *gin.RouterGroup) {
	cards := store.Group("/gift-cards")
	{
		cards.GET("", h.Lookup)
		cards.POST("/redeem", h.Redeem)
	}
}

// RegisterAdminRoutes registers admin routes on an admin-only group
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	cards := admin.Group("/gift-cards")
	{
		cards.GET("", h.List)
		cards.POST("", h.Create)
		cards.GET("/abandoned", h.Abandoned)
		cards.POST("/abandoned/report", h.ReportAbandoned)
		cards.GET("/:id", h.Get)
		cards.POST("/:id/redeem", h.RedeemForCustomer)
	}
}
