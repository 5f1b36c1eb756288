package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope every message on the bus carries
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent builds an event with a fresh id, marshalling data as the payload
func NewEvent(eventType, source string, data interface{}) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}, nil
}

// Subjects
const (
	SubjectOrderPlaced        = "orders.placed"
	SubjectOrderCanceled      = "orders.canceled"
	SubjectCartAbandoned      = "carts.abandoned"
	SubjectGiftCardsAbandoned = "giftcards.abandoned"
	SubjectEmailRequested     = "notifications.email.requested"
)

// StreamSubjects are the subject filters the commerce stream captures
var StreamSubjects = []string{"orders.>", "carts.>", "giftcards.>", "notifications.>"}

// OrderPlacedData is published by the storefront when checkout completes
type OrderPlacedData struct {
	OrderID    string `json:"order_id"`
	CartID     string `json:"cart_id,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
	Email      string `json:"email,omitempty"`
}

// OrderCanceledData is published when a placed order is canceled
type OrderCanceledData struct {
	OrderID string `json:"order_id"`
	CartID  string `json:"cart_id,omitempty"`
}

// CartAbandonedData is published when a cart expires without checkout
type CartAbandonedData struct {
	CartID     string `json:"cart_id"`
	CustomerID string `json:"customer_id,omitempty"`
}

// GiftCardsAbandonedData lists cards awaiting escheatment reporting
type GiftCardsAbandonedData struct {
	GiftCardIDs []string  `json:"gift_card_ids"`
	TotalValue  int64     `json:"total_value"`
	ScannedAt   time.Time `json:"scanned_at"`
}

// EmailRequestedData asks the mail relay to deliver a rendered message
type EmailRequestedData struct {
	To       string `json:"to"`
	From     string `json:"from"`
	Subject  string `json:"subject"`
	HTML     string `json:"html"`
	Text     string `json:"text"`
	Template string `json:"template"`
}
