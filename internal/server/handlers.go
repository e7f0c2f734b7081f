package server

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/predictionmetrics/marketshare/internal/model"
	"github.com/predictionmetrics/marketshare/internal/share"
	"github.com/predictionmetrics/marketshare/internal/storage"
	"github.com/predictionmetrics/marketshare/internal/version"
)

// handleMarketShare serves the aggregate share payload. Data problems surface
// inside the body as warnings; the route itself always answers 200.
func (s *Server) handleMarketShare(c *fiber.Ctx) error {
	mode := c.Query("mode")
	q := share.Query{
		Window:        model.ParseWindow(c.Query("window")),
		Metric:        model.ParseMetric(c.Query("metric")),
		Mock:          mode == "mock" || (s.mockMode && mode == ""),
		WarehouseOnly: c.Query("source") == "dune",
	}
	return c.JSON(s.shares.Share(c.Context(), q))
}

type topMarketsResponse struct {
	Kalshi     []model.TopMarket `json:"kalshi"`
	Polymarket []model.TopMarket `json:"polymarket"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// handleTopMarkets serves each platform's high-volume markets, fetched in
// parallel. A failed platform contributes an empty list.
func (s *Server) handleTopMarkets(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	category := model.Category(c.Query("category"))

	results := make(map[model.Platform][]model.TopMarket, len(s.top))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(c.Context())
	for _, src := range s.top {
		src := src
		g.Go(func() error {
			markets, err := src.TopMarkets(ctx)
			if err != nil {
				s.logger.Warn("top markets fetch failed",
					"platform", src.Platform(), "error", err)
				return nil
			}
			mu.Lock()
			results[src.Platform()] = markets
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	resp := topMarketsResponse{UpdatedAt: time.Now().UTC()}
	resp.Kalshi = filterTopMarkets(results[model.PlatformKalshi], category, limit)
	resp.Polymarket = filterTopMarkets(results[model.PlatformPolymarket], category, limit)
	return c.JSON(resp)
}

func filterTopMarkets(markets []model.TopMarket, category model.Category, limit int) []model.TopMarket {
	out := make([]model.TopMarket, 0, len(markets))
	for _, m := range markets {
		if category != "" && m.Category != category {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

type marketsResponse struct {
	Markets   []model.MatchedMarket `json:"markets"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func (s *Server) handleMarkets(c *fiber.Ctx) error {
	markets, err := s.tracker.Markets(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to load markets")
	}
	return c.JSON(marketsResponse{
		Markets:   markets,
		UpdatedAt: s.tracker.UpdatedAt(c.Context()),
	})
}

func (s *Server) handleMarketsSync(c *fiber.Ctx) error {
	markets, err := s.tracker.Sync(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "market sync failed")
	}
	return c.JSON(marketsResponse{
		Markets:   markets,
		UpdatedAt: s.tracker.UpdatedAt(c.Context()),
	})
}

// userID extracts the delegated identity. The server trusts the fronting
// proxy to have authenticated the user; it only maps id to profile data.
func userID(c *fiber.Ctx) string {
	return c.Get("X-User-Id")
}

func (s *Server) handleGetUsername(c *fiber.Ctx) error {
	id := userID(c)
	if id == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	username, err := s.users.Username(c.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return c.JSON(fiber.Map{"username": nil, "has_username": false})
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to get username")
	}
	return c.JSON(fiber.Map{"username": username, "has_username": true})
}

type setUsernameRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleSetUsername(c *fiber.Ctx) error {
	id := userID(c)
	if id == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	var req setUsernameRequest
	if err := c.BodyParser(&req); err != nil || req.Username == "" {
		return fiber.NewError(fiber.StatusBadRequest, "username is required")
	}

	err := s.users.SetUsername(c.Context(), id, req.Username)
	switch {
	case errors.Is(err, storage.ErrInvalidUsername), errors.Is(err, storage.ErrUsernameTaken):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case err != nil:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to set username")
	}
	return c.JSON(fiber.Map{"success": true, "username": req.Username})
}

func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": version.String(),
	})
}
