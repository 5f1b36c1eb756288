package storecredit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/richxcame/engraving-commerce/pkg/database"
	"github.com/richxcame/engraving-commerce/pkg/money"
)

// ErrReservationNotHeld is returned when a reservation left the held state
// before the caller could commit or release it.
var ErrReservationNotHeld = errors.New("reservation is not held")

// Repository handles store credit data access
type Repository struct {
	db database.Pool
}

// NewRepository creates a new store credit repository
func NewRepository(db database.Pool) *Repository {
	return &Repository{db: db}
}

// ========================================
// ACCOUNT OPERATIONS
// ========================================

const accountColumns = `id, customer_id, balance, currency_code, created_at, updated_at`

func scanAccount(row pgx.Row) (*StoreCredit, error) {
	sc := &StoreCredit{}
	err := row.Scan(&sc.ID, &sc.CustomerID, &sc.Balance, &sc.CurrencyCode, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// GetByCustomer returns the customer's account, nil when none exists
func (r *Repository) GetByCustomer(ctx context.Context, customerID string) (*StoreCredit, error) {
	query := `SELECT ` + accountColumns + ` FROM store_credits WHERE customer_id = $1`

	sc, err := scanAccount(r.db.QueryRow(ctx, query, customerID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return sc, err
}

// GetOrCreate returns the customer's account, creating an empty one if needed
func (r *Repository) GetOrCreate(ctx context.Context, customerID, currency string) (*StoreCredit, error) {
	query := `
		INSERT INTO store_credits (id, customer_id, balance, currency_code, created_at, updated_at)
		VALUES ($1, $2, 0, $3, NOW(), NOW())
		ON CONFLICT (customer_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
		RETURNING ` + accountColumns

	return scanAccount(r.db.QueryRow(ctx, query, uuid.New(), customerID, currency))
}

// Credit adds amount to the customer's balance and returns the new balance
func (r *Repository) Credit(ctx context.Context, customerID string, amount int64, currency string) (int64, error) {
	return r.CreditTx(ctx, r.db, customerID, amount, currency)
}

// CreditTx credits through db, which may be a transaction owned by the
// caller. The account is created on first credit. An existing account held
// in another currency is left untouched and money.ErrCurrencyMismatch returned.
func (r *Repository) CreditTx(ctx context.Context, db database.DBTX, customerID string, amount int64, currency string) (int64, error) {
	query := `
		INSERT INTO store_credits (id, customer_id, balance, currency_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (customer_id) DO UPDATE
		SET balance = store_credits.balance + EXCLUDED.balance, updated_at = NOW()
		WHERE lower(store_credits.currency_code) = lower(EXCLUDED.currency_code)
		RETURNING balance
	`

	var balance int64
	err := db.QueryRow(ctx, query, uuid.New(), customerID, amount, currency).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("credit %s to customer %s: %w", currency, customerID, money.ErrCurrencyMismatch)
	}
	if err != nil {
		return 0, fmt.Errorf("credit store credit: %w", err)
	}
	return balance, nil
}

// Debit removes min(requested, balance) under a row lock and returns the
// amount actually removed. A customer without an account has nothing to debit.
func (r *Repository) Debit(ctx context.Context, customerID string, requested int64) (int64, error) {
	return debitTx(ctx, r.db, customerID, requested)
}

func debitTx(ctx context.Context, db database.DBTX, customerID string, requested int64) (int64, error) {
	query := `
		WITH locked AS (
			SELECT id, balance FROM store_credits WHERE customer_id = $1 FOR UPDATE
		)
		UPDATE store_credits sc
		SET balance = sc.balance - LEAST($2::bigint, locked.balance), updated_at = NOW()
		FROM locked
		WHERE sc.id = locked.id
		RETURNING LEAST($2::bigint, locked.balance)
	`

	var applied int64
	err := db.QueryRow(ctx, query, customerID, requested).Scan(&applied)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("debit store credit: %w", err)
	}
	return applied, nil
}

// ========================================
// RESERVATION OPERATIONS
// ========================================

const reservationColumns = `id, customer_id, cart_id, amount, currency_code, status,
	order_id, applied_amount, created_at, updated_at`

func scanReservation(row pgx.Row) (*Reservation, error) {
	res := &Reservation{}
	err := row.Scan(
		&res.ID, &res.CustomerID, &res.CartID, &res.Amount, &res.CurrencyCode, &res.Status,
		&res.OrderID, &res.AppliedAmount, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// HoldForCart stores a held reservation, replacing the cart's previous hold
func (r *Repository) HoldForCart(ctx context.Context, res *Reservation) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE store_credit_reservations
			SET status = 'released', updated_at = NOW()
			WHERE cart_id = $1 AND status = 'held'
		`, res.CartID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO store_credit_reservations (
				id, customer_id, cart_id, amount, currency_code, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, res.ID, res.CustomerID, res.CartID, res.Amount, res.CurrencyCode, res.Status,
			res.CreatedAt, res.UpdatedAt)
		return err
	})
}

// GetHeldByCart returns the cart's held reservation, nil when none
func (r *Repository) GetHeldByCart(ctx context.Context, cartID string) (*Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM store_credit_reservations
		WHERE cart_id = $1 AND status = 'held'`

	res, err := scanReservation(r.db.QueryRow(ctx, query, cartID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return res, err
}

// GetCommittedByOrder returns the reservation committed for an order, nil when none
func (r *Repository) GetCommittedByOrder(ctx context.Context, orderID string) (*Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM store_credit_reservations
		WHERE order_id = $1 AND status = 'committed'
		ORDER BY updated_at DESC
		LIMIT 1`

	res, err := scanReservation(r.db.QueryRow(ctx, query, orderID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return res, err
}

// Commit debits the held amount and marks the reservation committed in one
// transaction. It returns the amount debited, which is clamped to the balance.
func (r *Repository) Commit(ctx context.Context, reservationID uuid.UUID, orderID string) (int64, error) {
	var applied int64
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var customerID string
		var amount int64
		err := tx.QueryRow(ctx, `
			SELECT customer_id, amount FROM store_credit_reservations
			WHERE id = $1 AND status = 'held'
			FOR UPDATE
		`, reservationID).Scan(&customerID, &amount)
		if err == pgx.ErrNoRows {
			return ErrReservationNotHeld
		}
		if err != nil {
			return err
		}

		applied, err = debitTx(ctx, tx, customerID, amount)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE store_credit_reservations
			SET status = 'committed', order_id = $2, applied_amount = $3, updated_at = NOW()
			WHERE id = $1
		`, reservationID, orderID, applied)
		return err
	})
	return applied, err
}

// Refund credits a committed reservation's applied amount back and marks it
// released, in one transaction.
func (r *Repository) Refund(ctx context.Context, reservationID uuid.UUID) (int64, error) {
	var refunded int64
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var customerID, currency string
		var applied *int64
		err := tx.QueryRow(ctx, `
			SELECT customer_id, currency_code, applied_amount FROM store_credit_reservations
			WHERE id = $1 AND status = 'committed'
			FOR UPDATE
		`, reservationID).Scan(&customerID, &currency, &applied)
		if err == pgx.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		if applied != nil && *applied > 0 {
			if _, err := r.CreditTx(ctx, tx, customerID, *applied, currency); err != nil {
				return err
			}
			refunded = *applied
		}

		_, err = tx.Exec(ctx, `
			UPDATE store_credit_reservations SET status = 'released', updated_at = NOW()
			WHERE id = $1
		`, reservationID)
		return err
	})
	return refunded, err
}

// Release moves a held reservation to released. Returns false when it was not held.
func (r *Repository) Release(ctx context.Context, reservationID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE store_credit_reservations SET status = 'released', updated_at = NOW()
		WHERE id = $1 AND status = 'held'
	`, reservationID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ReleaseHeldBefore releases holds created before cutoff
func (r *Repository) ReleaseHeldBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE store_credit_reservations SET status = 'released', updated_at = NOW()
		WHERE status = 'held' AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
