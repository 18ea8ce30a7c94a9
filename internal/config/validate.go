package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

const maxDeletedTTL = 10 * 365 * 24 * time.Hour

var consistencyLevels = map[string]bool{
	"ANY": true, "ONE": true, "TWO": true, "THREE": true, "QUORUM": true, "ALL": true,
	"LOCAL_QUORUM": true, "EACH_QUORUM": true, "LOCAL_ONE": true,
}

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Scylla.Hosts()) == 0 {
		return fmt.Errorf("scylla.hosts must not be empty")
	}
	if c.Scylla.Keyspace == "" {
		return fmt.Errorf("scylla.keyspace must not be empty")
	}
	if !consistencyLevels[strings.ToUpper(c.Scylla.Consistency)] {
		return fmt.Errorf("scylla.consistency %q is not a consistency level", c.Scylla.Consistency)
	}

	if c.Search.RequestsPerSecond <= 0 {
		return fmt.Errorf("search.requests_per_second must be > 0 (got %g)", c.Search.RequestsPerSecond)
	}

	if c.Content.MaxBytes <= 0 {
		return fmt.Errorf("content.max_bytes must be > 0 (got %d)", c.Content.MaxBytes)
	}

	if c.Retention.DeletedTTL <= 0 || c.Retention.DeletedTTL > maxDeletedTTL {
		return fmt.Errorf("retention.deleted_ttl must be in (0, %s] (got %s)", maxDeletedTTL, c.Retention.DeletedTTL)
	}

	if c.Collection.MaxChildren <= 0 {
		return fmt.Errorf("collection.max_children must be > 0 (got %d)", c.Collection.MaxChildren)
	}
	if c.Collection.MaxDepth <= 0 {
		return fmt.Errorf("collection.max_depth must be > 0 (got %d)", c.Collection.MaxDepth)
	}

	if err := c.Sync.validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	return nil
}

func (s *SyncConfig) validate() error {
	if s.Workers < 1 || s.Workers > 64 {
		return fmt.Errorf("workers must be in [1, 64] (got %d)", s.Workers)
	}
	if s.LookbackDays < 1 {
		return fmt.Errorf("lookback_days must be >= 1 (got %d)", s.LookbackDays)
	}
	if s.IndexRetries > 10 {
		return fmt.Errorf("index_retries must be <= 10 (got %d)", s.IndexRetries)
	}
	if s.RetryBackoff <= 0 {
		return fmt.Errorf("retry_backoff must be > 0 (got %s)", s.RetryBackoff)
	}
	if !gronx.IsValid(s.Cron) {
		return fmt.Errorf("cron %q is not a valid expression", s.Cron)
	}
	return nil
}
