package config

import "fmt"

// Validate checks the configuration for errors that would surface later as
// confusing runtime failures.
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}

	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if c.Upstream.MaxRetries < 0 {
		return fmt.Errorf("upstream.max_retries must not be negative")
	}

	if c.Warehouse.QueryID <= 0 {
		return fmt.Errorf("warehouse.query_id must be positive, got %d", c.Warehouse.QueryID)
	}

	if c.Database.Enabled() {
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required when database.host is set")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required when database.host is set")
		}
	}

	seen := make(map[string]bool, len(c.Markets))
	for _, m := range c.Markets {
		if err := m.Validate(); err != nil {
			return err
		}
		if seen[m.Key] {
			return fmt.Errorf("market config %s: duplicate key", m.Key)
		}
		seen[m.Key] = true
	}

	return nil
}
