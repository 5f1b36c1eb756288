package storecredit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/engraving-commerce/pkg/common"
	"github.com/richxcame/engraving-commerce/pkg/middleware"
	"github.com/richxcame/engraving-commerce/pkg/money"
)

// Handler handles HTTP requests for store credit
type Handler struct {
	service   *Service
	adminRole string
}

// NewHandler creates a new store credit handler
func NewHandler(service *Service, adminRole string) *Handler {
	return &Handler{service: service, adminRole: adminRole}
}

// GetBalance returns the caller's store credit balance
// GET /api/v1/store/store-credit
func (h *Handler) GetBalance(c *gin.Context) {
	customerID, appErr := middleware.ResolveCustomerID(c, c.Query("customer_id"), h.adminRole)
	if appErr != nil {
		common.AppErrorResponse(c, appErr)
		return
	}

	account, err := h.service.Account(c.Request.Context(), customerID)
	if err != nil {
		common.HandleServiceError(c, err, "Failed to fetch store credit")
		return
	}

	common.SuccessResponse(c, BalanceResponse{
		CustomerID:   customerID,
		Balance:      money.ToFloat(account.Balance),
		CurrencyCode: account.CurrencyCode,
	})
}

// Apply applies store credit to a cart. The balance is held, not debited,
// until the order is placed.
// POST /api/v1/store/store-credit/apply
func (h *Handler) Apply(c *gin.Context) {
	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "customer_id and amount are required")
		return
	}

	customerID, appErr := middleware.ResolveCustomerID(c, req.CustomerID, h.adminRole)
	if appErr != nil {
		common.AppErrorResponse(c, appErr)
		return
	}

	amount, err := money.ToMinor(*req.Amount)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "amount is out of range")
		return
	}

	result, err := h.service.ReserveForCart(c.Request.Context(), customerID, req.CartID, amount)
	if err != nil {
		common.HandleServiceError(c, err, "Failed to apply store credit")
		return
	}

	common.SuccessResponse(c, ApplyResponse{
		Applied:          money.ToFloat(result.Applied),
		RemainingBalance: money.ToFloat(result.RemainingBalance),
		CurrencyCode:     result.CurrencyCode,
	})
}

// RegisterRoutes registers store credit routes on an authenticated store group
func (h *Handler) RegisterRoutes(store *gin.RouterGroup) {
	credit := store.Group("/store-credit")
	{
		credit.GET("", h.GetBalance)
		credit.POST("/apply", h.Apply)
	}
}
