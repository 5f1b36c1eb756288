package orders

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Order is the storefront order as seen by this service
type Order struct {
	ID                string     `json:"id"`
	CartID            *string    `json:"cart_id,omitempty"`
	CustomerID        *string    `json:"customer_id,omitempty"`
	Email             *string    `json:"email,omitempty"`
	CurrencyCode      string     `json:"currency_code"`
	CustomerFirstName *string    `json:"customer_first_name,omitempty"`
	CustomerLastName  *string    `json:"customer_last_name,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	Items             []LineItem `json:"items"`
}

// LineItem is one purchased line of an order
type LineItem struct {
	ID              string                 `json:"id"`
	OrderID         string                 `json:"order_id"`
	Title           string                 `json:"title"`
	Quantity        int                    `json:"quantity"`
	UnitPrice       int64                  `json:"unit_price"`
	Total           int64                  `json:"total"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	ProductMetadata map[string]interface{} `json:"product_metadata,omitempty"`
}

// BelongsTo reports whether the order was placed by customerID
func (o *Order) BelongsTo(customerID string) bool {
	return o.CustomerID != nil && *o.CustomerID == customerID
}

// CustomerName joins first and last name, empty when neither is known
func (o *Order) CustomerName() string {
	var parts []string
	if o.CustomerFirstName != nil && *o.CustomerFirstName != "" {
		parts = append(parts, *o.CustomerFirstName)
	}
	if o.CustomerLastName != nil && *o.CustomerLastName != "" {
		parts = append(parts, *o.CustomerLastName)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// IsGiftCard reports whether the line item's product is flagged as a gift
// card. The flag may be stored as a boolean or as the string "true".
func (li *LineItem) IsGiftCard() bool {
	switch v := li.ProductMetadata["is_gift_card"].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// GiftCardType returns the product's gift_card_type, digital when unset
func (li *LineItem) GiftCardType() string {
	if t, ok := li.ProductMetadata["gift_card_type"].(string); ok && t != "" {
		return t
	}
	return "digital"
}

// EngravingText returns the engraving text captured on the line item
func (li *LineItem) EngravingText() *string {
	v, ok := li.Metadata["engraving_text"]
	if !ok || v == nil {
		return nil
	}
	s := fmt.Sprint(v)
	if s == "" {
		return nil
	}
	return &s
}

// EngravingMetadata returns the engraving options captured on the line item
func (li *LineItem) EngravingMetadata() map[string]interface{} {
	if m, ok := li.Metadata["engraving_metadata"].(map[string]interface{}); ok {
		return m
	}
	return nil
}

// UnitValue is the per-unit value in minor units: unit_price when set,
// otherwise total spread across the quantity.
func (li *LineItem) UnitValue() int64 {
	if li.UnitPrice > 0 {
		return li.UnitPrice
	}
	return int64(math.Round(float64(li.Total) / float64(li.Units())))
}

// Units is the quantity, never less than one
func (li *LineItem) Units() int {
	if li.Quantity < 1 {
		return 1
	}
	return li.Quantity
}
