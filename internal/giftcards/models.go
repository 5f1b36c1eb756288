package giftcards

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardStatus represents the status of a gift card
type CardStatus string

const (
	CardStatusUnused   CardStatus = "unused"
	CardStatusRedeemed CardStatus = "redeemed"
	CardStatusExpired  CardStatus = "expired" // Reserved; expiry is never enforced
)

// CardType represents how a gift card is delivered
type CardType string

const (
	CardTypeDigital  CardType = "digital"  // Code emailed to the purchaser
	CardTypePhysical CardType = "physical" // Engraved card shipped with the order
)

// Valid reports whether t is a known card type
func (t CardType) Valid() bool {
	return t == CardTypeDigital || t == CardTypePhysical
}

// GiftCard represents an issued gift card. Value is in minor units.
type GiftCard struct {
	ID                   uuid.UUID              `json:"id" db:"id"`
	Code                 string                 `json:"code" db:"code"`
	Value                int64                  `json:"value" db:"value"`
	CurrencyCode         string                 `json:"currency_code" db:"currency_code"`
	Status               CardStatus             `json:"status" db:"status"`
	Type                 CardType               `json:"type" db:"type"`
	CustomerID           *string                `json:"customer_id,omitempty" db:"customer_id"`
	OrderID              *string                `json:"order_id,omitempty" db:"order_id"`
	LineItemID           *string                `json:"line_item_id,omitempty" db:"line_item_id"`
	EngravingText        *string                `json:"engraving_text,omitempty" db:"engraving_text"`
	EngravingMetadata    map[string]interface{} `json:"engraving_metadata,omitempty" db:"engraving_metadata"`
	PurchasedAt          time.Time              `json:"purchased_at" db:"purchased_at"`
	ExpiresAt            *time.Time             `json:"expires_at,omitempty" db:"expires_at"`
	IsExpirable          bool                   `json:"is_expirable" db:"is_expirable"`
	AbandonedAt          *time.Time             `json:"abandoned_at,omitempty" db:"abandoned_at"`
	AbandonedReported    bool                   `json:"abandoned_reported" db:"abandoned_reported"`
	RedeemedAt           *time.Time             `json:"redeemed_at,omitempty" db:"redeemed_at"`
	RedeemedByCustomerID *string                `json:"redeemed_by_customer_id,omitempty" db:"redeemed_by_customer_id"`
	DeliveredAt          *time.Time             `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt            time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at" db:"updated_at"`
}

// CreateGiftCardInput describes a card to issue
type CreateGiftCardInput struct {
	Value             int64
	CurrencyCode      string
	Type              CardType
	CustomerID        *string
	OrderID           *string
	LineItemID        *string
	EngravingText     *string
	EngravingMetadata map[string]interface{}
}

// ListFilter narrows admin listings. Zero values are ignored.
type ListFilter struct {
	ID         *uuid.UUID
	CustomerID string
	OrderID    string
	Status     CardStatus
}

// RedemptionResult is a redeemed card and the customer's balance afterwards
type RedemptionResult struct {
	GiftCard           *GiftCard `json:"gift_card"`
	StoreCreditBalance int64     `json:"store_credit"`
}

// ========================================
// REQUEST/RESPONSE TYPES
// ========================================

// CreateGiftCardRequest is the admin create payload. Value is in major units.
type CreateGiftCardRequest struct {
	Value             *decimal.Decimal       `json:"value" binding:"required"`
	CurrencyCode      string                 `json:"currency_code,omitempty" validate:"omitempty,currency_code"`
	Type              string                 `json:"type" binding:"required" validate:"gift_card_type"`
	CustomerID        *string                `json:"customer_id,omitempty"`
	OrderID           *string                `json:"order_id,omitempty"`
	LineItemID        *string                `json:"line_item_id,omitempty"`
	EngravingText     *string                `json:"engraving_text,omitempty" validate:"omitempty,max=500"`
	EngravingMetadata map[string]interface{} `json:"engraving_metadata,omitempty"`
}

// RedeemRequest redeems a code into the caller's store credit
type RedeemRequest struct {
	Code       string `json:"code" binding:"required"`
	CustomerID string `json:"customer_id,omitempty"`
}

// AdminRedeemRequest redeems a card on behalf of a customer
type AdminRedeemRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
}

// ReportAbandonedRequest marks abandoned cards as reported
type ReportAbandonedRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

// LookupResponse is the limited view of a card exposed to shoppers
type LookupResponse struct {
	Code         string     `json:"code"`
	Value        int64      `json:"value"`
	CurrencyCode string     `json:"currency_code"`
	Status       CardStatus `json:"status"`
	Type         CardType   `json:"type"`
}

// RedeemedCard is the card summary returned after a store redemption
type RedeemedCard struct {
	Code  string `json:"code"`
	Value int64  `json:"value"`
}

// RedeemResponse is returned by the store redeem endpoint
type RedeemResponse struct {
	Message     string       `json:"message"`
	GiftCard    RedeemedCard `json:"gift_card"`
	StoreCredit int64        `json:"store_credit"`
}

// AbandonedReport summarizes cards awaiting escheatment reporting
type AbandonedReport struct {
	GiftCards  []*GiftCard `json:"gift_cards"`
	Count      int         `json:"count"`
	TotalValue int64       `json:"total_value"`
}
