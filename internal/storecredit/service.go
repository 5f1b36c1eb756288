package storecredit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/engraving-commerce/pkg/common"
	"github.com/richxcame/engraving-commerce/pkg/logger"
	"github.com/richxcame/engraving-commerce/pkg/money"
	"go.uber.org/zap"
)

const defaultCurrency = "usd"

// Service handles store credit business logic
type Service struct {
	repo     RepositoryInterface
	currency string
	now      func() time.Time
}

// NewService creates a new store credit service. currency is the default for
// new accounts.
func NewService(repo RepositoryInterface, currency string) *Service {
	if currency == "" {
		currency = defaultCurrency
	}
	return &Service{
		repo:     repo,
		currency: strings.ToLower(currency),
		now:      time.Now,
	}
}

// ========================================
// ACCOUNT
// ========================================

// GetOrCreate returns the customer's account, creating an empty one on first use
func (s *Service) GetOrCreate(ctx context.Context, customerID, currency string) (*StoreCredit, error) {
	if customerID == "" {
		return nil, common.NewBadRequestError("customer_id is required", nil)
	}
	account, err := s.repo.GetOrCreate(ctx, customerID, s.currencyOr(currency))
	if err != nil {
		return nil, common.NewInternalError("failed to load store credit", err)
	}
	return account, nil
}

// Account returns the customer's account without creating one. A customer
// with no account gets a zero balance in the default currency.
func (s *Service) Account(ctx context.Context, customerID string) (*StoreCredit, error) {
	if customerID == "" {
		return nil, common.NewBadRequestError("customer_id is required", nil)
	}
	account, err := s.repo.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, common.NewInternalError("failed to load store credit", err)
	}
	if account == nil {
		return &StoreCredit{CustomerID: customerID, CurrencyCode: s.currency}, nil
	}
	return account, nil
}

// Balance returns the customer's balance in minor units, 0 without an account
func (s *Service) Balance(ctx context.Context, customerID string) (int64, error) {
	account, err := s.Account(ctx, customerID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Credit adds amount to the customer's balance and returns the new balance
func (s *Service) Credit(ctx context.Context, customerID string, amount int64, currency string) (int64, error) {
	if customerID == "" {
		return 0, common.NewBadRequestError("customer_id is required", nil)
	}
	if amount < 0 {
		return 0, common.NewBadRequestError("credit amount must not be negative", nil)
	}

	balance, err := s.repo.Credit(ctx, customerID, amount, s.currencyOr(currency))
	if errors.Is(err, money.ErrCurrencyMismatch) {
		return 0, common.NewBadRequestError("currency does not match the store credit account", err)
	}
	if err != nil {
		return 0, common.NewInternalError("failed to credit store credit", err)
	}

	logger.Info("Store credit added",
		zap.String("customer_id", customerID),
		zap.Int64("amount", amount),
		zap.Int64("balance", balance),
	)
	return balance, nil
}

// Apply debits min(requested, balance) and returns the amount debited
func (s *Service) Apply(ctx context.Context, customerID string, requested int64) (int64, error) {
	if customerID == "" {
		return 0, common.NewBadRequestError("customer_id is required", nil)
	}
	if requested < 0 {
		return 0, common.NewBadRequestError("amount must not be negative", nil)
	}
	if requested == 0 {
		return 0, nil
	}

	applied, err := s.repo.Debit(ctx, customerID, requested)
	if err != nil {
		return 0, common.NewInternalError("failed to apply store credit", err)
	}
	storeCreditDebitedTotal.Add(float64(applied))
	return applied, nil
}

// ========================================
// CART RESERVATIONS
// ========================================

// ReserveForCart computes how much credit can go toward a cart. With a cart
// id the amount is held until the order is placed; the balance is untouched.
func (s *Service) ReserveForCart(ctx context.Context, customerID, cartID string, requested int64) (*ApplyResult, error) {
	if requested < 0 {
		return nil, common.NewBadRequestError("amount must not be negative", nil)
	}

	account, err := s.Account(ctx, customerID)
	if err != nil {
		return nil, err
	}

	applied := money.Min(requested, account.Balance)
	if applied <= 0 || account.Balance <= 0 {
		return nil, common.NewBadRequestError("Insufficient store credit balance", nil)
	}

	result := &ApplyResult{
		Applied:          applied,
		RemainingBalance: account.Balance - applied,
		CurrencyCode:     account.CurrencyCode,
	}

	if cartID != "" {
		now := s.now()
		res := &Reservation{
			ID:           uuid.New(),
			CustomerID:   customerID,
			CartID:       cartID,
			Amount:       applied,
			CurrencyCode: account.CurrencyCode,
			Status:       ReservationHeld,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.repo.HoldForCart(ctx, res); err != nil {
			return nil, common.NewInternalError("failed to reserve store credit", err)
		}
		result.Reservation = res

		logger.Info("Store credit reserved for cart",
			zap.String("customer_id", customerID),
			zap.String("cart_id", cartID),
			zap.Int64("amount", applied),
		)
	}

	return result, nil
}

// CommitForOrder debits the cart's held reservation for a placed order. A cart
// without a hold applies nothing.
func (s *Service) CommitForOrder(ctx context.Context, cartID, orderID string) (int64, error) {
	if cartID == "" {
		return 0, nil
	}

	res, err := s.repo.GetHeldByCart(ctx, cartID)
	if err != nil {
		return 0, common.NewInternalError("failed to load reservation", err)
	}
	if res == nil {
		return 0, nil
	}

	applied, err := s.repo.Commit(ctx, res.ID, orderID)
	if errors.Is(err, ErrReservationNotHeld) {
		logger.Warn("Reservation released before commit", zap.String("reservation_id", res.ID.String()))
		return 0, nil
	}
	if err != nil {
		return 0, common.NewInternalError("failed to commit reservation", err)
	}

	storeCreditDebitedTotal.Add(float64(applied))
	if applied < res.Amount {
		logger.Warn("Store credit balance fell below reserved amount",
			zap.String("reservation_id", res.ID.String()),
			zap.Int64("reserved", res.Amount),
			zap.Int64("applied", applied),
		)
	}

	logger.Info("Store credit applied to order",
		zap.String("order_id", orderID),
		zap.String("customer_id", res.CustomerID),
		zap.Int64("applied", applied),
	)
	return applied, nil
}

// ReleaseForCart drops the cart's hold. Returns false when there was none.
func (s *Service) ReleaseForCart(ctx context.Context, cartID string) (bool, error) {
	res, err := s.repo.GetHeldByCart(ctx, cartID)
	if err != nil {
		return false, common.NewInternalError("failed to load reservation", err)
	}
	if res == nil {
		return false, nil
	}

	released, err := s.repo.Release(ctx, res.ID)
	if err != nil {
		return false, common.NewInternalError("failed to release reservation", err)
	}
	return released, nil
}

// RefundForOrder returns credit committed to a canceled order
func (s *Service) RefundForOrder(ctx context.Context, orderID string) (int64, error) {
	res, err := s.repo.GetCommittedByOrder(ctx, orderID)
	if err != nil {
		return 0, common.NewInternalError("failed to load reservation", err)
	}
	if res == nil {
		return 0, nil
	}

	refunded, err := s.repo.Refund(ctx, res.ID)
	if err != nil {
		return 0, common.NewInternalError("failed to refund store credit", err)
	}

	if refunded > 0 {
		logger.Info("Store credit refunded for canceled order",
			zap.String("order_id", orderID),
			zap.String("customer_id", res.CustomerID),
			zap.Int64("refunded", refunded),
		)
	}
	return refunded, nil
}

// ReleaseStale releases holds older than ttl
func (s *Service) ReleaseStale(ctx context.Context, ttl time.Duration) (int64, error) {
	n, err := s.repo.ReleaseHeldBefore(ctx, s.now().Add(-ttl))
	if err != nil {
		return 0, common.NewInternalError("failed to release stale reservations", err)
	}
	return n, nil
}

func (s *Service) currencyOr(currency string) string {
	if currency == "" {
		return s.currency
	}
	return strings.ToLower(currency)
}
