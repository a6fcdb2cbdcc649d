package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueName is the durable queue bound to every notification kind.
const QueueName = "suite-exchange.notifications"

// Consumer drains the notification queue into a line-oriented log file.
type Consumer struct {
	URL     string
	LogPath string
	Logger  *slog.Logger
}

// Run connects to RabbitMQ, declares and binds the queue and appends one
// line per notification to LogPath.  It reconnects with backoff until ctx
// is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			logger.Warn("notifier: dial failed", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("notifier: consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection, logger *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("notifier: set QoS failed", "error", err)
	}
	if err := ch.ExchangeDeclare(ExchangeName, ExchangeKind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(QueueName, "#", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				logger.Error("notifier: handle message failed", "error", err)
				_ = d.Nack(false, false) // poison messages are dropped, not requeued
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one delivery body and appends it to the log file.
func (c *Consumer) Handle(body []byte) error {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if n.Kind == "" || n.UserID == 0 {
		return fmt.Errorf("notification missing kind or user")
	}
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(n)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders n as a single human-readable log line.
func FormatLine(n Notification) string {
	line := fmt.Sprintf("[%s] %s | user_id=%d | %s=%d | subject=%q",
		n.CreatedAt.UTC().Format(time.RFC3339), n.Kind, n.UserID, n.TargetType, n.TargetID, n.Subject)
	if n.Detail != "" {
		line += fmt.Sprintf(" | detail=%q", n.Detail)
	}
	return line + "\n"
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
