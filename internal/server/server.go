// Package server exposes the dashboard HTTP API and websocket feed on fiber.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/predictionmetrics/marketshare/internal/model"
	"github.com/predictionmetrics/marketshare/internal/share"
	"github.com/predictionmetrics/marketshare/internal/storage"
)

// ShareService computes share responses; see the share package.
type ShareService interface {
	Share(ctx context.Context, q share.Query) model.ShareResponse
}

// TopMarketSource lists a platform's current high-volume markets.
type TopMarketSource interface {
	Platform() model.Platform
	TopMarkets(ctx context.Context) ([]model.TopMarket, error)
}

// MarketTracker serves and refreshes tracked-market snapshots.
type MarketTracker interface {
	Markets(ctx context.Context) ([]model.MatchedMarket, error)
	Sync(ctx context.Context) ([]model.MatchedMarket, error)
	UpdatedAt(ctx context.Context) time.Time
}

// Server wires the HTTP surface over the domain services.
type Server struct {
	app      *fiber.App
	shares   ShareService
	top      []TopMarketSource
	tracker  MarketTracker
	users    storage.UserStore
	hub      *Hub
	logger   *slog.Logger
	mockMode bool
}

// Config holds the server's tunables.
type Config struct {
	// RefreshInterval drives the websocket push cadence.
	RefreshInterval time.Duration
	// MockMode serves the static mock tables for share requests that do
	// not name a mode themselves.
	MockMode bool
}

// New builds the fiber app. Call Listen (or App().Test in tests) to serve.
func New(shares ShareService, top []TopMarketSource, tracker MarketTracker, users storage.UserStore, logger *slog.Logger, cfg Config) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 30 * time.Second
	}

	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		shares:   shares,
		top:      top,
		tracker:  tracker,
		users:    users,
		logger:   logger,
		mockMode: cfg.MockMode,
	}
	s.hub = newHub(shares, logger, cfg.RefreshInterval)
	s.routes()
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the hub and serves until the listener fails or Shutdown is
// called.
func (s *Server) Listen(ctx context.Context, addr string) error {
	go s.hub.run(ctx)
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) routes() {
	s.app.Use(s.requestLogger)

	api := s.app.Group("/api")
	api.Get("/marketshare", s.handleMarketShare)
	api.Get("/top-markets", s.handleTopMarkets)
	api.Get("/markets", s.handleMarkets)
	api.Get("/markets/sync", s.handleMarketsSync)
	api.Get("/user/username", s.handleGetUsername)
	api.Post("/user/username", s.handleSetUsername)

	s.app.Get("/healthz", s.handleHealthz)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	s.app.Get("/ws", websocket.New(s.hub.serve))
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
	}
	s.logger.Info("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return err
}
