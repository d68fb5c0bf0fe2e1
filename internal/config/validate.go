package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path must be set")
	}
	if c.Storage.MaxBytes <= 0 {
		return fmt.Errorf("storage.max_bytes must be > 0 (got %d)", c.Storage.MaxBytes)
	}

	c.Remote.Backend = strings.ToLower(strings.TrimSpace(c.Remote.Backend))
	switch c.Remote.Backend {
	case BackendNone, BackendRedis, BackendMySQL:
	default:
		return fmt.Errorf("remote.backend must be one of none, redis, mysql (got %q)", c.Remote.Backend)
	}
	if c.Remote.Backend == BackendRedis && c.Remote.RedisAddr == "" {
		return fmt.Errorf("remote.redis_addr must be set for the redis backend")
	}
	if c.Remote.Backend == BackendMySQL && c.Remote.MySQLDSN == "" {
		return fmt.Errorf("remote.mysql_dsn must be set for the mysql backend")
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("remote.timeout must be > 0 (got %v)", c.Remote.Timeout)
	}

	if c.Sync.PushTimeout <= 0 {
		return fmt.Errorf("sync.push_timeout must be > 0 (got %v)", c.Sync.PushTimeout)
	}
	if c.Share.MaxItemBytes <= 0 {
		return fmt.Errorf("share.max_item_bytes must be > 0 (got %d)", c.Share.MaxItemBytes)
	}

	return nil
}

// RemoteEnabled reports whether a remote backend is configured.
func (c *Config) RemoteEnabled() bool {
	return c.Remote.Backend != BackendNone
}
