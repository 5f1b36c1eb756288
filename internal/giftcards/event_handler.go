package giftcards

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/engraving-commerce/internal/notifications"
	"github.com/richxcame/engraving-commerce/internal/orders"
	"github.com/richxcame/engraving-commerce/pkg/eventbus"
	"github.com/richxcame/engraving-commerce/pkg/logger"
	"go.uber.org/zap"
)

// Mailer delivers gift card codes
type Mailer interface {
	SendGiftCardEmail(ctx context.Context, msg notifications.GiftCardEmail) error
}

// ProofOpener opens a pending design proof for an order. It reports false
// when the order already has one.
type ProofOpener interface {
	OpenPending(ctx context.Context, orderID, customerNotes string) (bool, error)
}

// Idempotency remembers orders whose cards were fully handled
type Idempotency interface {
	Processed(ctx context.Context, key string) (bool, error)
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) error
}

// Issuer mints cards for an order and tracks their hand-off
type Issuer interface {
	IssueForOrder(ctx context.Context, order *orders.Order) ([]*GiftCard, error)
	PendingDelivery(ctx context.Context, orderID string) ([]*GiftCard, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
}

// EventHandler mints gift cards when orders are placed
type EventHandler struct {
	issuer Issuer
	orders orders.Reader
	mailer Mailer
	proofs ProofOpener
	idem   Idempotency
	ttl    time.Duration
}

// NewEventHandler creates the order-placed subscriber. mailer, proofs and
// idem may be nil.
func NewEventHandler(issuer Issuer, reader orders.Reader, mailer Mailer, proofs ProofOpener, idem Idempotency, ttl time.Duration) *EventHandler {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &EventHandler{
		issuer: issuer,
		orders: reader,
		mailer: mailer,
		proofs: proofs,
		idem:   idem,
		ttl:    ttl,
	}
}

// RegisterSubscriptions subscribes to placed orders
func (h *EventHandler) RegisterSubscriptions(ctx context.Context, bus eventbus.Subscriber) error {
	if err := bus.Subscribe(ctx, eventbus.SubjectOrderPlaced, "giftcards-order-placed", h.handleOrderPlaced); err != nil {
		return fmt.Errorf("subscribe to %s: %w", eventbus.SubjectOrderPlaced, err)
	}
	logger.Info("giftcards: subscribed to order events")
	return nil
}

func (h *EventHandler) handleOrderPlaced(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.OrderPlacedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal order placed: %w: %w", err, eventbus.ErrPermanent)
	}
	if data.OrderID == "" {
		return fmt.Errorf("order placed without order_id: %w", eventbus.ErrPermanent)
	}

	key := "giftcards:order:" + data.OrderID
	if h.processed(ctx, key) {
		logger.WithContext(ctx).Debug("giftcards: order already processed", zap.String("order_id", data.OrderID))
		return nil
	}

	if err := h.processOrder(ctx, &data); err != nil {
		return err
	}
	h.markProcessed(ctx, key)
	return nil
}

// processOrder mints the order's missing cards, then hands off every card
// not yet delivered. Cards left by an earlier failed or interrupted attempt
// are picked up here too.
func (h *EventHandler) processOrder(ctx context.Context, data *eventbus.OrderPlacedData) error {
	order, err := h.orders.GetOrder(ctx, data.OrderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", data.OrderID, err)
	}
	if order == nil {
		return fmt.Errorf("order %s not found", data.OrderID)
	}

	_, issueErr := h.issuer.IssueForOrder(ctx, order)

	pending, listErr := h.issuer.PendingDelivery(ctx, order.ID)
	if listErr == nil {
		recipient := data.Email
		if order.Email != nil && *order.Email != "" {
			recipient = *order.Email
		}
		for _, card := range pending {
			if h.deliver(ctx, order, card, recipient) {
				h.markDelivered(ctx, card)
			}
		}
	}

	if issueErr != nil {
		return fmt.Errorf("issue gift cards for order %s: %w", order.ID, issueErr)
	}
	if listErr != nil {
		return fmt.Errorf("list undelivered gift cards for order %s: %w", order.ID, listErr)
	}
	return nil
}

// deliver reports whether the card needs no further hand-off
func (h *EventHandler) deliver(ctx context.Context, order *orders.Order, card *GiftCard, recipient string) bool {
	switch card.Type {
	case CardTypeDigital:
		return h.sendCode(ctx, order, card, recipient)
	case CardTypePhysical:
		return h.openProof(ctx, order, card)
	}
	return true
}

func (h *EventHandler) sendCode(ctx context.Context, order *orders.Order, card *GiftCard, to string) bool {
	if h.mailer == nil {
		return false
	}
	if to == "" {
		logger.WithContext(ctx).Warn("giftcards: no recipient for gift card email",
			zap.String("order_id", order.ID),
			zap.String("gift_card_id", card.ID.String()),
		)
		return false
	}

	err := h.mailer.SendGiftCardEmail(ctx, notifications.GiftCardEmail{
		To:           to,
		CustomerName: order.CustomerName(),
		Code:         card.Code,
		Value:        card.Value,
		CurrencyCode: card.CurrencyCode,
	})
	if err != nil {
		logger.WithContext(ctx).Warn("giftcards: failed to send gift card email",
			zap.String("order_id", order.ID),
			zap.String("gift_card_id", card.ID.String()),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (h *EventHandler) openProof(ctx context.Context, order *orders.Order, card *GiftCard) bool {
	if card.EngravingText == nil || *card.EngravingText == "" {
		return true
	}
	if h.proofs == nil {
		return false
	}

	created, err := h.proofs.OpenPending(ctx, order.ID, "Gift card engraving: "+*card.EngravingText)
	if err != nil {
		logger.WithContext(ctx).Warn("giftcards: failed to create proof for engraved card",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return false
	}
	if created {
		logger.WithContext(ctx).Info("giftcards: proof opened for engraved card", zap.String("order_id", order.ID))
	}
	return true
}

func (h *EventHandler) markDelivered(ctx context.Context, card *GiftCard) {
	if err := h.issuer.MarkDelivered(ctx, card.ID); err != nil {
		logger.WithContext(ctx).Warn("giftcards: failed to mark card delivered",
			zap.String("gift_card_id", card.ID.String()),
			zap.Error(err),
		)
	}
}

// processed is the fast path for replays. Redis being down only costs a
// database round trip; minting and delivery are bounded in Postgres.
func (h *EventHandler) processed(ctx context.Context, key string) bool {
	if h.idem == nil {
		return false
	}
	seen, err := h.idem.Processed(ctx, key)
	if err != nil {
		logger.WithContext(ctx).Warn("giftcards: idempotency check failed", zap.Error(err))
		return false
	}
	return seen
}

func (h *EventHandler) markProcessed(ctx context.Context, key string) {
	if h.idem == nil {
		return
	}
	if err := h.idem.MarkProcessed(ctx, key, h.ttl); err != nil {
		logger.WithContext(ctx).Warn("giftcards: failed to record processed order", zap.String("key", key), zap.Error(err))
	}
}
