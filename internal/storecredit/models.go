package storecredit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReservationStatus is the lifecycle state of a cart reservation
type ReservationStatus string

const (
	ReservationHeld      ReservationStatus = "held"      // Applied to a cart, balance untouched
	ReservationCommitted ReservationStatus = "committed" // Debited when the order was placed
	ReservationReleased  ReservationStatus = "released"  // Cart abandoned, expired or order refunded
)

// StoreCredit is a customer's store credit account. Balance is in minor units.
type StoreCredit struct {
	ID           uuid.UUID `json:"id" db:"id"`
	CustomerID   string    `json:"customer_id" db:"customer_id"`
	Balance      int64     `json:"balance" db:"balance"`
	CurrencyCode string    `json:"currency_code" db:"currency_code"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Reservation holds store credit against a cart until checkout completes
type Reservation struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	CustomerID    string            `json:"customer_id" db:"customer_id"`
	CartID        string            `json:"cart_id" db:"cart_id"`
	Amount        int64             `json:"amount" db:"amount"`
	CurrencyCode  string            `json:"currency_code" db:"currency_code"`
	Status        ReservationStatus `json:"status" db:"status"`
	OrderID       *string           `json:"order_id,omitempty" db:"order_id"`
	AppliedAmount *int64            `json:"applied_amount,omitempty" db:"applied_amount"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// ApplyResult is the outcome of applying credit to a cart, in minor units
type ApplyResult struct {
	Applied          int64
	RemainingBalance int64
	CurrencyCode     string
	Reservation      *Reservation
}

// ========================================
// REQUEST/RESPONSE TYPES
// ========================================

// ApplyRequest applies store credit to a cart. Amount is in major units.
type ApplyRequest struct {
	CustomerID string           `json:"customer_id,omitempty"`
	CartID     string           `json:"cart_id,omitempty"`
	Amount     *decimal.Decimal `json:"amount" binding:"required"`
}

// BalanceResponse is the store-facing balance view in major units
type BalanceResponse struct {
	CustomerID   string  `json:"customer_id"`
	Balance      float64 `json:"balance"`
	CurrencyCode string  `json:"currency_code"`
}

// ApplyResponse reports what was applied, in major units
type ApplyResponse struct {
	Applied          float64 `json:"applied"`
	RemainingBalance float64 `json:"remaining_balance"`
	CurrencyCode     string  `json:"currency_code"`
}
