package giftcards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/richxcame/engraving-commerce/pkg/database"
)

// ErrNotRedeemable is returned when the redeem update matched no unused card,
// which means another redemption won the race.
var ErrNotRedeemable = errors.New("gift card is not redeemable")

// CodeConstraint is the unique index guarding gift card codes
const CodeConstraint = "gift_cards_code_key"

// Repository handles gift card data access
type Repository struct {
	db      database.Pool
	credits CreditWriter
}

// NewRepository creates a new gift card repository. credits is used to
// credit store credit inside the redemption transaction.
func NewRepository(db database.Pool, credits CreditWriter) *Repository {
	return &Repository{db: db, credits: credits}
}

const cardColumns = `id, code, value, currency_code, status, type, customer_id, order_id,
	line_item_id, engraving_text, engraving_metadata, purchased_at, expires_at,
	is_expirable, abandoned_at, abandoned_reported, redeemed_at,
	redeemed_by_customer_id, delivered_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*GiftCard, error) {
	c := &GiftCard{}
	err := row.Scan(
		&c.ID, &c.Code, &c.Value, &c.CurrencyCode, &c.Status, &c.Type, &c.CustomerID, &c.OrderID,
		&c.LineItemID, &c.EngravingText, &c.EngravingMetadata, &c.PurchasedAt, &c.ExpiresAt,
		&c.IsExpirable, &c.AbandonedAt, &c.AbandonedReported, &c.RedeemedAt,
		&c.RedeemedByCustomerID, &c.DeliveredAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func collectCards(rows pgx.Rows) ([]*GiftCard, error) {
	defer rows.Close()

	cards := make([]*GiftCard, 0)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// ========================================
// LEDGER OPERATIONS
// ========================================

// CodeExists reports whether any card, including soft-deleted ones, uses code
func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM gift_cards WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

// CreateCard inserts a new gift card
func (r *Repository) CreateCard(ctx context.Context, card *GiftCard) error {
	query := `
		INSERT INTO gift_cards (
			id, code, value, currency_code, status, type, customer_id, order_id,
			line_item_id, engraving_text, engraving_metadata, purchased_at, expires_at,
			is_expirable, abandoned_reported, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
	`
	_, err := r.db.Exec(ctx, query,
		card.ID, card.Code, card.Value, card.CurrencyCode, card.Status, card.Type,
		card.CustomerID, card.OrderID, card.LineItemID, card.EngravingText,
		card.EngravingMetadata, card.PurchasedAt, card.ExpiresAt, card.IsExpirable,
		card.AbandonedReported, card.CreatedAt, card.UpdatedAt,
	)
	return err
}

// GetCardByCode retrieves a card by code. Returns nil when not found.
func (r *Repository) GetCardByCode(ctx context.Context, code string) (*GiftCard, error) {
	query := `SELECT ` + cardColumns + ` FROM gift_cards WHERE code = $1 AND deleted_at IS NULL`

	card, err := scanCard(r.db.QueryRow(ctx, query, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return card, err
}

// GetCardByID retrieves a card by ID. Returns nil when not found.
func (r *Repository) GetCardByID(ctx context.Context, id uuid.UUID) (*GiftCard, error) {
	query := `SELECT ` + cardColumns + ` FROM gift_cards WHERE id = $1 AND deleted_at IS NULL`

	card, err := scanCard(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return card, err
}

// ListCards returns one page of cards matching filter plus the total count
func (r *Repository) ListCards(ctx context.Context, filter ListFilter, limit, offset int) ([]*GiftCard, int64, error) {
	conds := []string{"deleted_at IS NULL"}
	var args []any

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.ID != nil {
		add("id = $%d", *filter.ID)
	}
	if filter.CustomerID != "" {
		add("customer_id = $%d", filter.CustomerID)
	}
	if filter.OrderID != "" {
		add("order_id = $%d", filter.OrderID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	where := strings.Join(conds, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM gift_cards WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM gift_cards WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		cardColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}

	cards, err := collectCards(rows)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// CountCardsForLineItem counts cards already issued for an order line
func (r *Repository) CountCardsForLineItem(ctx context.Context, orderID, lineItemID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM gift_cards WHERE order_id = $1 AND line_item_id = $2
	`, orderID, lineItemID).Scan(&n)
	return n, err
}

// ListUndelivered returns the order's cards whose code email or engraving
// proof has not been handed off yet, oldest first.
func (r *Repository) ListUndelivered(ctx context.Context, orderID string) ([]*GiftCard, error) {
	query := `SELECT ` + cardColumns + `
		FROM gift_cards
		WHERE order_id = $1 AND delivered_at IS NULL AND deleted_at IS NULL
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	return collectCards(rows)
}

// MarkDelivered stamps delivered_at once
func (r *Repository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE gift_cards SET delivered_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND delivered_at IS NULL
	`, id)
	return err
}

// RedeemCard flips an unused card to redeemed and credits its value to
// customerID in the same transaction.
func (r *Repository) RedeemCard(ctx context.Context, cardID uuid.UUID, customerID string) (*GiftCard, int64, error) {
	var card *GiftCard
	var balance int64

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE gift_cards
			SET status = 'redeemed', redeemed_at = NOW(), redeemed_by_customer_id = $2, updated_at = NOW()
			WHERE id = $1 AND status <> 'redeemed' AND deleted_at IS NULL
			RETURNING ` + cardColumns

		c, err := scanCard(tx.QueryRow(ctx, query, cardID, customerID))
		if err == pgx.ErrNoRows {
			return ErrNotRedeemable
		}
		if err != nil {
			return fmt.Errorf("mark gift card redeemed: %w", err)
		}

		balance, err = r.credits.CreditTx(ctx, tx, customerID, c.Value, c.CurrencyCode)
		if err != nil {
			return err
		}
		card = c
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return card, balance, nil
}

// ========================================
// ABANDONED PROPERTY
// ========================================

// MarkAbandoned stamps abandoned_at on unused cards purchased before the
// cutoff that are not yet marked, returning the cards it stamped.
func (r *Repository) MarkAbandoned(ctx context.Context, purchasedBefore time.Time) ([]*GiftCard, error) {
	query := `
		UPDATE gift_cards
		SET abandoned_at = NOW(), updated_at = NOW()
		WHERE status = 'unused' AND purchased_at < $1 AND abandoned_at IS NULL AND deleted_at IS NULL
		RETURNING ` + cardColumns

	rows, err := r.db.Query(ctx, query, purchasedBefore)
	if err != nil {
		return nil, err
	}
	return collectCards(rows)
}

// GetUnreportedAbandoned lists abandoned cards not yet reported
func (r *Repository) GetUnreportedAbandoned(ctx context.Context) ([]*GiftCard, error) {
	query := `SELECT ` + cardColumns + `
		FROM gift_cards
		WHERE abandoned_at IS NOT NULL AND abandoned_reported = FALSE AND deleted_at IS NULL
		ORDER BY abandoned_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectCards(rows)
}

// MarkAbandonedReported flags abandoned cards as reported
func (r *Repository) MarkAbandonedReported(ctx context.Context, ids []uuid.UUID) (int64, error) {
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE gift_cards SET abandoned_reported = TRUE, updated_at = NOW()
		WHERE id = ANY($1::uuid[]) AND abandoned_at IS NOT NULL
	`, strIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
