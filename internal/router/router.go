// Package router registers the HTTP API on an echo instance.
package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/suite-exchange/internal/config"
	"github.com/iliyamo/suite-exchange/internal/handler"
	"github.com/iliyamo/suite-exchange/internal/metrics"
	"github.com/iliyamo/suite-exchange/internal/middleware"
	"github.com/iliyamo/suite-exchange/internal/service"
)

// Deps is everything the routes need.  Redis may be nil.
type Deps struct {
	Cfg       config.Config
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Svc       *service.Service
	Redis     *redis.Client
	Logger    *slog.Logger
}

// RegisterRoutes registers the unauthenticated operational endpoints:
// the liveness probe and the prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// Register wires the whole API.  Every /v1 route resolves the caller from
// an optional bearer token, records request provenance for the audit log
// and passes the rate limiter; the engine decides what each caller may do.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e)

	v1 := e.Group("/v1",
		middleware.Identify(d.Cfg.JWTSecret),
		middleware.Provenance(),
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Logger),
	)
	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Logger)
	listingsChanged := middleware.InvalidateCache(d.Cache, d.Redis, d.Logger, "/v1/listings")
	boardChanged := middleware.InvalidateCache(d.Cache, d.Redis, d.Logger, "/v1/discussions")

	RegisterAuth(v1, handler.NewAuthHandler(d.Cfg, d.Svc))
	RegisterMarket(v1, handler.NewApplicationHandler(d.Svc), handler.NewListingHandler(d.Svc), handler.NewMessageHandler(d.Svc), cache, listingsChanged)
	RegisterBoard(v1, handler.NewDiscussionHandler(d.Svc), cache, boardChanged)
	RegisterAdmin(v1, handler.NewAdminHandler(d.Svc), cache)
}

// RegisterAuth registers account routes.  Register and login are public;
// /me needs a token.
func RegisterAuth(g *echo.Group, a *handler.AuthHandler) {
	g.POST("/auth/register", a.Register)
	g.POST("/auth/login", a.Login)
	g.GET("/me", a.Me)
}
