package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iliyamo/suite-exchange/internal/audit"
	"github.com/iliyamo/suite-exchange/internal/config"
	"github.com/iliyamo/suite-exchange/internal/database"
	"github.com/iliyamo/suite-exchange/internal/handler"
	"github.com/iliyamo/suite-exchange/internal/metrics"
	"github.com/iliyamo/suite-exchange/internal/queue"
	"github.com/iliyamo/suite-exchange/internal/repository"
	"github.com/iliyamo/suite-exchange/internal/repository/memstore"
	"github.com/iliyamo/suite-exchange/internal/router"
	"github.com/iliyamo/suite-exchange/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatalf("register metrics: %v", err)
	}

	recorder := audit.NewRecorder(store, logger,
		audit.WithTimeout(cfg.AuditTimeout),
		audit.WithFailureCounter(metrics.AuditFailures),
	)

	var notifier queue.Notifier = queue.NopNotifier{}
	if cfg.RabbitMQURL != "" {
		pub := queue.NewPublisher(cfg.RabbitMQURL, logger)
		go pub.Run(ctx)
		notifier = pub
	} else {
		logger.Info("RABBITMQ_URL not set, notifications disabled")
	}

	svc := service.New(store, recorder, notifier, logger, service.WithBcryptCost(cfg.BcryptCost))

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable: local rate limiting, response cache off")
	} else {
		defer rdb.Close()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(echoMw.RequestIDWithConfig(echoMw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method, "uri", v.URI, "status", v.Status,
				"latency", v.Latency.String(), "request_id", v.RequestID)
			return nil
		},
	}))
	e.Use(echoMw.Recover())
	e.Use(echoMw.BodyLimit("1M"))
	e.Use(metrics.Instrument())

	router.Register(e, router.Deps{
		Cfg:       cfg,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Svc:       svc,
		Redis:     rdb,
		Logger:    logger,
	})

	addr := ":" + cfg.Port // Address string with port
	logger.Info("listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()
	<-ctx.Done()

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdown); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

// openStore selects the persistence backend named by STORE_DRIVER.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.Store, func()) {
	if cfg.StoreDriver == config.StoreMemory {
		s := memstore.New()
		s.SeedSuites()
		logger.Warn("using in-memory store; data is lost on restart")
		return s, func() {}
	}

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		logger.Info("schema applied")
	}
	return repository.NewMySQLStore(db), func() { _ = db.Close() }
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
