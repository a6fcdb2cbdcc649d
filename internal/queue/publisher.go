package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/suite-exchange/internal/metrics"
)

const (
	ExchangeName = "notifications"
	ExchangeKind = "topic"
)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends notifications to a RabbitMQ topic exchange.  Notify only
// enqueues; Run drains the buffer on a single goroutine so the AMQP channel
// is never shared.  A full buffer or a broker error drops the notification.
type Publisher struct {
	url    string
	logger *slog.Logger
	buf    chan Notification
	dial   func(url string) (channel, func(), error)

	ch      channel
	release func()
}

// NewPublisher returns a publisher for url.  The connection is opened
// lazily by Run and re-opened after a failure.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		url:    url,
		logger: logger,
		buf:    make(chan Notification, 256),
		dial:   dialExchange,
	}
}

// Notify enqueues n without blocking.
func (p *Publisher) Notify(_ context.Context, n Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	select {
	case p.buf <- n:
	default:
		metrics.NotificationFailures.Inc()
		p.logger.Warn("notification dropped: buffer full", "kind", string(n.Kind), "user_id", n.UserID)
	}
}

// Run publishes buffered notifications until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	defer p.closeChannel()
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-p.buf:
			if err := p.publish(ctx, n); err != nil {
				metrics.NotificationFailures.Inc()
				p.logger.Warn("notification publish failed", "kind", string(n.Kind), "user_id", n.UserID, "error", err)
				p.closeChannel()
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, n Notification) error {
	if p.ch == nil {
		ch, release, err := p.dial(p.url)
		if err != nil {
			return err
		}
		p.ch, p.release = ch, release
	}
	msg, err := encode(n)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.ch.PublishWithContext(ctx, ExchangeName, string(n.Kind), false, false, msg); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

func (p *Publisher) closeChannel() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.release != nil {
		p.release()
		p.release = nil
	}
}

func encode(n Notification) (amqp.Publishing, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal notification: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    n.CreatedAt,
		Type:         string(n.Kind),
		Body:         body,
	}, nil
}

func dialExchange(url string) (channel, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(ExchangeName, ExchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	return ch, func() { _ = conn.Close() }, nil
}
