package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/richxcame/engraving-commerce/pkg/config"
	"github.com/richxcame/engraving-commerce/pkg/eventbus"
	"github.com/richxcame/engraving-commerce/pkg/logger"
	"github.com/richxcame/engraving-commerce/pkg/money"
	"github.com/richxcame/engraving-commerce/pkg/resilience"
	"go.uber.org/zap"
)

const (
	SubjectGiftCard   = "Your Gift Card from Grogan Engrave"
	SubjectProofReady = "Your Design Proof is Ready for Review"

	eventSource = "notifications"
)

// ErrNoRecipient is returned when a message has no address to go to
var ErrNoRecipient = errors.New("notification has no recipient")

// GiftCardEmail carries a newly minted digital card to its purchaser
type GiftCardEmail struct {
	To           string
	CustomerName string
	Code         string
	Value        int64
	CurrencyCode string
}

// ProofReadyEmail tells a customer their design proof can be reviewed
type ProofReadyEmail struct {
	To           string
	CustomerName string
	OrderID      string
	ProofURL     string
}

// Service renders transactional email and hands it to the mail relay
// through the event bus.
type Service struct {
	publisher eventbus.Publisher
	breaker   *resilience.CircuitBreaker
	cfg       config.NotificationConfig
}

// NewService creates a notification service. breaker may be nil.
func NewService(publisher eventbus.Publisher, breaker *resilience.CircuitBreaker, cfg config.NotificationConfig) *Service {
	return &Service{publisher: publisher, breaker: breaker, cfg: cfg}
}

// SendGiftCardEmail emails a gift card code to its purchaser
func (s *Service) SendGiftCardEmail(ctx context.Context, msg GiftCardEmail) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}

	html, err := render(templateGiftCard, giftCardView{
		CustomerName:   greetingName(msg.CustomerName),
		Code:           msg.Code,
		Value:          money.Format(msg.Value, msg.CurrencyCode),
		RedeemURL:      strings.TrimRight(s.cfg.StoreURL, "/") + "/account/gift-cards",
		SupportAddress: s.cfg.FromAddress,
	})
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Your gift card code is %s (value %s). This gift card does not expire and has no fees.",
		msg.Code, money.Format(msg.Value, msg.CurrencyCode))

	return s.dispatch(ctx, eventbus.EmailRequestedData{
		To:       msg.To,
		From:     s.cfg.FromAddress,
		Subject:  SubjectGiftCard,
		HTML:     html,
		Text:     text,
		Template: "gift-card",
	})
}

// SendProofReadyEmail emails a proof review link
func (s *Service) SendProofReadyEmail(ctx context.Context, msg ProofReadyEmail) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}

	html, err := render(templateProofReady, proofReadyView{
		CustomerName:   greetingName(msg.CustomerName),
		OrderID:        msg.OrderID,
		ProofURL:       msg.ProofURL,
		SupportAddress: s.cfg.FromAddress,
	})
	if err != nil {
		return err
	}

	return s.dispatch(ctx, eventbus.EmailRequestedData{
		To:       msg.To,
		From:     s.cfg.FromAddress,
		Subject:  SubjectProofReady,
		HTML:     html,
		Text:     fmt.Sprintf("Your design proof for order %s is ready: %s", msg.OrderID, msg.ProofURL),
		Template: "proof-ready",
	})
}

func (s *Service) dispatch(ctx context.Context, data eventbus.EmailRequestedData) error {
	event, err := eventbus.NewEvent(eventbus.SubjectEmailRequested, eventSource, data)
	if err != nil {
		return err
	}

	publish := func(ctx context.Context) (interface{}, error) {
		return nil, s.publisher.Publish(ctx, eventbus.SubjectEmailRequested, event)
	}

	if s.breaker != nil {
		_, err = s.breaker.Execute(ctx, publish)
	} else {
		_, err = publish(ctx)
	}
	if err != nil {
		logger.WithContext(ctx).Warn("notifications: failed to queue email",
			zap.String("template", data.Template),
			zap.Error(err),
		)
		return fmt.Errorf("queue %s email: %w", data.Template, err)
	}

	logger.WithContext(ctx).Info("notifications: email queued",
		zap.String("template", data.Template),
		zap.String("event_id", event.ID),
	)
	return nil
}

func greetingName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}
