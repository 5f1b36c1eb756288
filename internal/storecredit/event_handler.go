package storecredit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/richxcame/engraving-commerce/pkg/eventbus"
	"github.com/richxcame/engraving-commerce/pkg/logger"
	"go.uber.org/zap"
)

// EventHandler settles cart reservations from checkout events
type EventHandler struct {
	service *Service
}

// NewEventHandler creates an event handler backed by the store credit service
func NewEventHandler(service *Service) *EventHandler {
	return &EventHandler{service: service}
}

// RegisterSubscriptions subscribes to order and cart lifecycle events
func (h *EventHandler) RegisterSubscriptions(ctx context.Context, bus eventbus.Subscriber) error {
	subs := []struct {
		subject string
		durable string
		handler eventbus.Handler
	}{
		{eventbus.SubjectOrderPlaced, "storecredit-order-placed", h.handleOrderPlaced},
		{eventbus.SubjectCartAbandoned, "storecredit-cart-abandoned", h.handleCartAbandoned},
		{eventbus.SubjectOrderCanceled, "storecredit-order-canceled", h.handleOrderCanceled},
	}

	for _, sub := range subs {
		if err := bus.Subscribe(ctx, sub.subject, sub.durable, sub.handler); err != nil {
			return fmt.Errorf("subscribe to %s: %w", sub.subject, err)
		}
	}
	logger.Info("storecredit: subscribed to order and cart events")
	return nil
}

// handleOrderPlaced commits the cart's reservation. A failed commit is
// returned for redelivery; the hold would otherwise go stale and the order
// keep its discount without a debit. Redelivery is safe because a committed
// hold is no longer found for the cart.
func (h *EventHandler) handleOrderPlaced(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.OrderPlacedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal order placed: %w: %w", err, eventbus.ErrPermanent)
	}
	if data.CartID == "" {
		return nil
	}

	applied, err := h.service.CommitForOrder(ctx, data.CartID, data.OrderID)
	if err != nil {
		return fmt.Errorf("commit reservation for order %s (cart %s): %w", data.OrderID, data.CartID, err)
	}

	if applied > 0 {
		logger.WithContext(ctx).Info("storecredit: store credit applied to order",
			zap.String("order_id", data.OrderID),
			zap.Int64("applied", applied),
		)
	}
	return nil
}

func (h *EventHandler) handleCartAbandoned(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.CartAbandonedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal cart abandoned: %w: %w", err, eventbus.ErrPermanent)
	}

	released, err := h.service.ReleaseForCart(ctx, data.CartID)
	if err != nil {
		return fmt.Errorf("release reservation for cart %s: %w", data.CartID, err)
	}
	if released {
		logger.WithContext(ctx).Info("storecredit: released reservation for abandoned cart",
			zap.String("cart_id", data.CartID),
		)
	}
	return nil
}

// handleOrderCanceled returns committed credit, or drops a hold that was
// never committed.
func (h *EventHandler) handleOrderCanceled(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.OrderCanceledData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal order canceled: %w: %w", err, eventbus.ErrPermanent)
	}

	refunded, err := h.service.RefundForOrder(ctx, data.OrderID)
	if err != nil {
		return fmt.Errorf("refund store credit for order %s: %w", data.OrderID, err)
	}
	if refunded > 0 || data.CartID == "" {
		return nil
	}

	if _, err := h.service.ReleaseForCart(ctx, data.CartID); err != nil {
		return fmt.Errorf("release reservation for cart %s: %w", data.CartID, err)
	}
	return nil
}
