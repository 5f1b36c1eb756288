package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/richxcame/engraving-commerce/pkg/logger"
	"go.uber.org/zap"
)

// Handler processes one event. Returning an error asks for redelivery.
type Handler func(ctx context.Context, event *Event) error

// Publisher is the publishing half of the bus
type Publisher interface {
	Publish(ctx context.Context, subject string, event *Event) error
}

// Subscriber is the consuming half of the bus
type Subscriber interface {
	Subscribe(ctx context.Context, subject, durable string, handler Handler) error
}

// Config configures the bus connection
type Config struct {
	URL        string
	StreamName string
	ClientName string
	MaxDeliver int
	NakDelay   time.Duration
	MaxAge     time.Duration
}

// Bus is a NATS JetStream backed event bus with durable consumers
type Bus struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	cfg    Config
	mu     sync.Mutex
	active []jetstream.ConsumeContext
}

// New connects to NATS and makes sure the stream exists
func New(ctx context.Context, cfg Config) (*Bus, error) {
	if cfg.MaxDeliver <= 0 {
		cfg.MaxDeliver = 5
	}
	if cfg.NakDelay <= 0 {
		cfg.NakDelay = 5 * time.Second
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 7 * 24 * time.Hour
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("eventbus: disconnected from nats", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("eventbus: reconnected to nats", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: StreamSubjects,
		Storage:  jetstream.FileStorage,
		MaxAge:   cfg.MaxAge,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", cfg.StreamName, err)
	}

	return &Bus{nc: nc, js: js, cfg: cfg}, nil
}

// Publish sends event on subject. The event id doubles as the JetStream
// message id, so a retried publish is deduplicated by the server.
func (b *Bus) Publish(ctx context.Context, subject string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := b.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe attaches handler to a durable consumer filtered on subject
func (b *Bus) Subscribe(ctx context.Context, subject, durable string, handler Handler) error {
	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.cfg.StreamName, jetstream.ConsumerConfig{
		Durable:       durable,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		MaxDeliver:    b.cfg.MaxDeliver,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", durable, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		b.handleMessage(ctx, durable, msg, handler)
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", durable, err)
	}

	b.mu.Lock()
	b.active = append(b.active, cc)
	b.mu.Unlock()
	return nil
}

func (b *Bus) handleMessage(ctx context.Context, durable string, msg jetstream.Msg, handler Handler) {
	var ackErr error
	switch outcome := dispatch(ctx, msg.Data(), handler); outcome.action {
	case actionAck:
		ackErr = msg.Ack()
	case actionTerm:
		logger.Error("eventbus: dropping undecodable message",
			zap.String("consumer", durable),
			zap.String("subject", msg.Subject()),
			zap.Error(outcome.err))
		ackErr = msg.Term()
	case actionNak:
		logger.Warn("eventbus: handler failed, scheduling redelivery",
			zap.String("consumer", durable),
			zap.String("subject", msg.Subject()),
			zap.Error(outcome.err))
		ackErr = msg.NakWithDelay(b.cfg.NakDelay)
	}
	if ackErr != nil {
		logger.Warn("eventbus: failed to acknowledge message", zap.String("consumer", durable), zap.Error(ackErr))
	}
}

type ackAction int

const (
	actionAck ackAction = iota
	actionNak
	actionTerm
)

type dispatchOutcome struct {
	action ackAction
	err    error
}

// ErrPermanent marks a handler failure that redelivery cannot fix
var ErrPermanent = errors.New("permanent event failure")

func dispatch(ctx context.Context, data []byte, handler Handler) dispatchOutcome {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return dispatchOutcome{action: actionTerm, err: fmt.Errorf("unmarshal event: %w", err)}
	}

	if err := handler(ctx, &event); err != nil {
		if errors.Is(err, ErrPermanent) {
			return dispatchOutcome{action: actionTerm, err: err}
		}
		return dispatchOutcome{action: actionNak, err: err}
	}
	return dispatchOutcome{action: actionAck}
}

// Healthy reports whether the NATS connection is up
func (b *Bus) Healthy(ctx context.Context) error {
	if b.nc == nil || !b.nc.IsConnected() {
		return errors.New("nats not connected")
	}
	return nil
}

// Close stops all consumers and drains the connection
func (b *Bus) Close() {
	b.mu.Lock()
	for _, cc := range b.active {
		cc.Stop()
	}
	b.active = nil
	b.mu.Unlock()

	if b.nc != nil {
		if err := b.nc.Drain(); err != nil {
			logger.Warn("eventbus: drain failed", zap.Error(err))
		}
	}
}
