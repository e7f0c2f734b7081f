package config

import (
	"time"

	"github.com/predictionmetrics/marketshare/internal/dune"
	"github.com/predictionmetrics/marketshare/internal/platform/kalshi"
	"github.com/predictionmetrics/marketshare/internal/platform/polymarket"
)

// Default values for optional configuration fields.
const (
	DefaultPort            = 8080
	DefaultUpstreamTimeout = 15 * time.Second
	DefaultMaxRetries      = 2
	DefaultCacheTTL        = 5 * time.Minute
	DefaultRefreshInterval = 30 * time.Second
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultSyncInterval    = 10 * time.Minute

	// DefaultQueryID is the saved dashboard query returning weekly rows
	// for every tracked platform.
	DefaultQueryID = 5753743
)

func (c *ServerConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.RefreshInterval == 0 {
		c.Server.RefreshInterval = DefaultRefreshInterval
	}

	if c.Upstream.KalshiURL == "" {
		c.Upstream.KalshiURL = kalshi.DefaultBaseURL
	}
	if c.Upstream.PolymarketURL == "" {
		c.Upstream.PolymarketURL = polymarket.DefaultBaseURL
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = DefaultUpstreamTimeout
	}
	if c.Upstream.MaxRetries == 0 {
		c.Upstream.MaxRetries = DefaultMaxRetries
	}

	if c.Warehouse.BaseURL == "" {
		c.Warehouse.BaseURL = dune.DefaultBaseURL
	}
	if c.Warehouse.QueryID == 0 {
		c.Warehouse.QueryID = DefaultQueryID
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	if c.Database.Enabled() {
		if c.Database.Port == 0 {
			c.Database.Port = DefaultDBPort
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = DefaultDBSSLMode
		}
	}

	if c.Tracker.SyncInterval == 0 {
		c.Tracker.SyncInterval = DefaultSyncInterval
	}
}
