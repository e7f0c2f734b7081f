// Package config loads the server configuration from YAML with environment
// variable expansion, defaults, and validation.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/predictionmetrics/marketshare/internal/model"
)

// ServerConfig is the root configuration for the dashboard server.
type ServerConfig struct {
	Server    HTTPConfig           `yaml:"server"`
	Upstream  UpstreamConfig       `yaml:"upstream"`
	Warehouse WarehouseConfig      `yaml:"warehouse"`
	Cache     CacheConfig          `yaml:"cache"`
	Database  DBConfig             `yaml:"database"`
	Tracker   TrackerConfig        `yaml:"tracker"`
	Markets   []model.MarketConfig `yaml:"markets"`
}

// HTTPConfig holds the listener settings. RefreshInterval drives the
// websocket push cadence; MockMode makes every share request serve the
// static mock tables unless the query says otherwise.
type HTTPConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	MockMode        bool          `yaml:"mock_mode"`
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// UpstreamConfig holds the platform API settings.
type UpstreamConfig struct {
	KalshiURL     string        `yaml:"kalshi_url"`
	PolymarketURL string        `yaml:"polymarket_url"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
}

// WarehouseConfig holds the Dune Analytics settings. An empty APIKey disables
// the warehouse fallback.
type WarehouseConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	QueryID int    `yaml:"query_id"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// DBConfig holds the optional Postgres connection. When Host is empty the
// server runs on in-memory storage.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
}

// Enabled reports whether Postgres storage is configured.
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

// DSN builds a PostgreSQL connection string.
func (c DBConfig) DSN() string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(c.Password)

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		escapedPassword,
		c.Host,
		c.Port,
		c.Name,
		sslMode,
	)
}

// TrackerConfig holds tracked-market sync settings.
type TrackerConfig struct {
	SyncInterval time.Duration `yaml:"sync_interval"`
}
