// Command notifier consumes marketplace notifications from RabbitMQ and
// appends them to a log file, one line per notification.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/suite-exchange/internal/queue"
)

func main() {
	_ = godotenv.Load()

	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		log.Fatal("missing required env var: RABBITMQ_URL")
	}
	path := os.Getenv("NOTIFICATION_LOG")
	if path == "" {
		path = "logs/notifications.log"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.Consumer{URL: url, LogPath: path, Logger: logger}
	logger.Info("notifier started", "queue", queue.QueueName, "log", path)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
