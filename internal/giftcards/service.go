package giftcards

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/engraving-commerce/internal/orders"
	"github.com/richxcame/engraving-commerce/pkg/common"
	"github.com/richxcame/engraving-commerce/pkg/config"
	"github.com/richxcame/engraving-commerce/pkg/database"
	"github.com/richxcame/engraving-commerce/pkg/logger"
	"github.com/richxcame/engraving-commerce/pkg/money"
	"github.com/richxcame/engraving-commerce/pkg/resilience"
	"github.com/richxcame/engraving-commerce/pkg/validation"
	"go.uber.org/zap"
)

const createConflictRetries = 3

// redeemRetry re-runs a redemption transaction that lost a serialization
// race or a connection. Business failures are never retried.
var redeemRetry = resilience.RetryConfig{
	MaxAttempts:       3,
	InitialBackoff:    50 * time.Millisecond,
	MaxBackoff:        500 * time.Millisecond,
	BackoffMultiplier: 2.0,
	EnableJitter:      true,
	RetryableChecker:  database.IsRetryable,
}

type redemption struct {
	card    *GiftCard
	balance int64
}

// Service implements the gift card ledger
type Service struct {
	repo  RepositoryInterface
	codes *CodeGenerator
	cfg   config.GiftCardConfig
	now   func() time.Time
}

// NewService creates a new gift card service
func NewService(repo RepositoryInterface, cfg config.GiftCardConfig) *Service {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "usd"
	}
	if cfg.ValidityYears <= 0 {
		cfg.ValidityYears = 5
	}
	if cfg.AbandonedAfterYrs <= 0 {
		cfg.AbandonedAfterYrs = 3
	}
	return &Service{
		repo:  repo,
		codes: NewCodeGenerator(repo, cfg.CodeAttempts),
		cfg:   cfg,
		now:   time.Now,
	}
}

// ========================================
// ISSUING
// ========================================

// Create issues a new unused gift card with a fresh code
func (s *Service) Create(ctx context.Context, in CreateGiftCardInput) (*GiftCard, error) {
	if in.Value <= 0 {
		return nil, common.NewBadRequestError("gift card value must be greater than zero", nil)
	}
	if in.Type == "" {
		in.Type = CardTypeDigital
	}
	if !in.Type.Valid() {
		return nil, common.NewBadRequestError("gift card type must be digital or physical", nil)
	}

	currency := strings.ToLower(in.CurrencyCode)
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	now := s.now()
	expiresAt := now.AddDate(s.cfg.ValidityYears, 0, 0)

	for attempt := 1; ; attempt++ {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			return nil, err
		}

		card := &GiftCard{
			ID:                uuid.New(),
			Code:              code,
			Value:             in.Value,
			CurrencyCode:      currency,
			Status:            CardStatusUnused,
			Type:              in.Type,
			CustomerID:        nonEmpty(in.CustomerID),
			OrderID:           nonEmpty(in.OrderID),
			LineItemID:        nonEmpty(in.LineItemID),
			EngravingText:     nonEmpty(in.EngravingText),
			EngravingMetadata: in.EngravingMetadata,
			PurchasedAt:       now,
			ExpiresAt:         &expiresAt,
			IsExpirable:       false,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		err = s.repo.CreateCard(ctx, card)
		if err == nil {
			giftCardsIssuedTotal.WithLabelValues(string(card.Type)).Inc()
			logger.Info("Gift card issued",
				zap.String("gift_card_id", card.ID.String()),
				zap.String("type", string(card.Type)),
				zap.Int64("value", card.Value),
			)
			return card, nil
		}

		if database.IsUniqueViolation(err, CodeConstraint) && attempt < createConflictRetries {
			logger.Warn("Gift card code collided on insert, retrying", zap.Int("attempt", attempt))
			continue
		}
		return nil, common.NewInternalError("failed to create gift card", err)
	}
}

// IssueForOrder mints one card per purchased unit of every gift card line in
// the order. Units already minted for a line are skipped, so a replayed
// order issues nothing new. Returns only the cards minted by this call.
func (s *Service) IssueForOrder(ctx context.Context, order *orders.Order) ([]*GiftCard, error) {
	var minted []*GiftCard

	for i := range order.Items {
		item := &order.Items[i]
		if !item.IsGiftCard() {
			continue
		}

		existing, err := s.repo.CountCardsForLineItem(ctx, order.ID, item.ID)
		if err != nil {
			return minted, common.NewInternalError("failed to count issued gift cards", err)
		}

		in := CreateGiftCardInput{
			Value:             item.UnitValue(),
			CurrencyCode:      order.CurrencyCode,
			Type:              CardType(item.GiftCardType()),
			CustomerID:        order.CustomerID,
			OrderID:           &order.ID,
			LineItemID:        &item.ID,
			EngravingText:     item.EngravingText(),
			EngravingMetadata: item.EngravingMetadata(),
		}
		for n := existing; n < item.Units(); n++ {
			card, err := s.Create(ctx, in)
			if err != nil {
				return minted, err
			}
			minted = append(minted, card)
		}

		if item.Units() > existing {
			logger.Info("Generated gift cards for order line",
				zap.String("order_id", order.ID),
				zap.String("line_item_id", item.ID),
				zap.Int("count", item.Units()-existing),
			)
		}
	}

	return minted, nil
}

// PendingDelivery lists the order's cards whose code or proof has not been
// handed off yet, including cards minted by an earlier failed attempt.
func (s *Service) PendingDelivery(ctx context.Context, orderID string) ([]*GiftCard, error) {
	cards, err := s.repo.ListUndelivered(ctx, orderID)
	if err != nil {
		return nil, common.NewInternalError("failed to list undelivered gift cards", err)
	}
	return cards, nil
}

// MarkDelivered records that a card's code or proof was handed off
func (s *Service) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.MarkDelivered(ctx, id); err != nil {
		return common.NewInternalError("failed to mark gift card delivered", err)
	}
	return nil
}

// ========================================
// LOOKUP & REDEMPTION
// ========================================

// Validate returns the card for code, nil when there is none. A redeemed
// card is rejected. Expiry is never enforced.
func (s *Service) Validate(ctx context.Context, code string) (*GiftCard, error) {
	code = normalizeCode(code)
	if !validation.IsGiftCardCode(code) {
		return nil, nil
	}

	card, err := s.repo.GetCardByCode(ctx, code)
	if err != nil {
		return nil, common.NewInternalError("failed to fetch gift card", err)
	}
	if card == nil {
		return nil, nil
	}
	if card.Status == CardStatusRedeemed {
		return nil, common.NewBadRequestError("This gift card has already been redeemed", nil)
	}
	return card, nil
}

// Redeem marks the card for code redeemed and credits its value to the
// customer's store credit atomically. Returns the card and the new balance.
func (s *Service) Redeem(ctx context.Context, code, customerID string) (*GiftCard, int64, error) {
	if customerID == "" {
		return nil, 0, common.NewBadRequestError("customer_id is required", nil)
	}

	card, err := s.Validate(ctx, code)
	if err != nil {
		return nil, 0, err
	}
	if card == nil {
		return nil, 0, common.NewNotFoundError("Gift card not found", nil)
	}

	return s.redeem(ctx, card, customerID)
}

// RedeemByID is Redeem addressed by card id
func (s *Service) RedeemByID(ctx context.Context, id uuid.UUID, customerID string) (*GiftCard, int64, error) {
	if customerID == "" {
		return nil, 0, common.NewBadRequestError("customer_id is required", nil)
	}

	card, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if card.Status == CardStatusRedeemed {
		return nil, 0, common.NewBadRequestError("Gift card has already been redeemed", nil)
	}

	return s.redeem(ctx, card, customerID)
}

func (s *Service) redeem(ctx context.Context, card *GiftCard, customerID string) (*GiftCard, int64, error) {
	res, err := resilience.Retry(ctx, redeemRetry, func(ctx context.Context) (interface{}, error) {
		redeemed, balance, err := s.repo.RedeemCard(ctx, card.ID, customerID)
		if err != nil {
			return nil, err
		}
		return redemption{card: redeemed, balance: balance}, nil
	})
	if errors.Is(err, ErrNotRedeemable) {
		return nil, 0, common.NewBadRequestError("This gift card has already been redeemed", nil)
	}
	if errors.Is(err, money.ErrCurrencyMismatch) {
		return nil, 0, common.NewBadRequestError("Gift card currency does not match your store credit currency", err)
	}
	if err != nil {
		return nil, 0, common.NewInternalError("failed to redeem gift card", err)
	}
	redeemed, balance := res.(redemption).card, res.(redemption).balance

	giftCardsRedeemedTotal.Inc()
	logger.Info("Gift card redeemed",
		zap.String("gift_card_id", redeemed.ID.String()),
		zap.String("customer_id", customerID),
		zap.Int64("value", redeemed.Value),
		zap.Int64("balance", balance),
	)
	return redeemed, balance, nil
}

// GetByID returns a card or a not-found error
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*GiftCard, error) {
	card, err := s.repo.GetCardByID(ctx, id)
	if err != nil {
		return nil, common.NewInternalError("failed to fetch gift card", err)
	}
	if card == nil {
		return nil, common.NewNotFoundError("Gift card not found", nil)
	}
	return card, nil
}

// GetByCode returns a card by code in any status, or a not-found error
func (s *Service) GetByCode(ctx context.Context, code string) (*GiftCard, error) {
	card, err := s.repo.GetCardByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, common.NewInternalError("failed to fetch gift card", err)
	}
	if card == nil {
		return nil, common.NewNotFoundError("Gift card not found", nil)
	}
	return card, nil
}

// List returns a page of cards matching filter
func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*GiftCard, int64, error) {
	cards, total, err := s.repo.ListCards(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list gift cards", err)
	}
	return cards, total, nil
}

// ========================================
// ABANDONED PROPERTY
// ========================================

// ScanAbandoned marks unused cards purchased more than the abandonment
// window ago and returns the cards marked by this scan. Re-running it marks
// nothing new.
func (s *Service) ScanAbandoned(ctx context.Context) ([]*GiftCard, error) {
	cutoff := s.now().AddDate(-s.cfg.AbandonedAfterYrs, 0, 0)

	cards, err := s.repo.MarkAbandoned(ctx, cutoff)
	if err != nil {
		return nil, common.NewInternalError("failed to scan abandoned gift cards", err)
	}

	giftCardsAbandonedTotal.Add(float64(len(cards)))
	if len(cards) > 0 {
		logger.Info("Marked gift cards as abandoned property",
			zap.Int("count", len(cards)),
			zap.Time("purchased_before", cutoff),
		)
	}
	return cards, nil
}

// UnreportedAbandoned lists abandoned cards not yet reported
func (s *Service) UnreportedAbandoned(ctx context.Context) ([]*GiftCard, error) {
	cards, err := s.repo.GetUnreportedAbandoned(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to list abandoned gift cards", err)
	}
	return cards, nil
}

// MarkAbandonedReported flags abandoned cards as reported
func (s *Service) MarkAbandonedReported(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, common.NewBadRequestError("ids are required", nil)
	}
	n, err := s.repo.MarkAbandonedReported(ctx, ids)
	if err != nil {
		return 0, common.NewInternalError("failed to mark gift cards reported", err)
	}
	return n, nil
}

// BuildAbandonedReport totals a set of abandoned cards
func BuildAbandonedReport(cards []*GiftCard) *AbandonedReport {
	report := &AbandonedReport{GiftCards: cards, Count: len(cards)}
	for _, c := range cards {
		report.TotalValue += c.Value
	}
	return report
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
