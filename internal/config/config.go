package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Scylla     ScyllaConfig     `yaml:"scylla"`
	Search     SearchConfig     `yaml:"search"`
	Content    ContentConfig    `yaml:"content"`
	Retention  RetentionConfig  `yaml:"retention"`
	Collection CollectionConfig `yaml:"collection"`
	Sync       SyncConfig       `yaml:"sync"`
	Ops        OpsConfig        `yaml:"ops"`
	Log        LogConfig        `yaml:"log"`
}

// ScyllaConfig holds wide-column store connection settings.
type ScyllaConfig struct {
	HostsRaw       string        `yaml:"hosts"           env:"SCYLLA_HOSTS"           env-default:"127.0.0.1:9042"`
	Keyspace       string        `yaml:"keyspace"        env:"SCYLLA_KEYSPACE"        env-default:"writing"`
	Username       string        `yaml:"username"        env:"SCYLLA_USERNAME"`
	Password       string        `yaml:"password"        env:"SCYLLA_PASSWORD"`
	Consistency    string        `yaml:"consistency"     env:"SCYLLA_CONSISTENCY"     env-default:"LOCAL_QUORUM"`
	Timeout        time.Duration `yaml:"timeout"         env:"SCYLLA_TIMEOUT"         env-default:"5s"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"SCYLLA_CONNECT_TIMEOUT" env-default:"10s"`
	NumConns       int           `yaml:"num_conns"       env:"SCYLLA_NUM_CONNS"       env-default:"2"`
	PageSize       int           `yaml:"page_size"       env:"SCYLLA_PAGE_SIZE"       env-default:"1000"`
}

// Hosts splits the comma-separated host list.
func (c ScyllaConfig) Hosts() []string {
	var hosts []string
	for _, h := range strings.Split(c.HostsRaw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// SearchConfig holds settings of the external full-text search engine.
type SearchConfig struct {
	URL               string        `yaml:"url"                 env:"SEARCH_URL"                 env-default:"http://127.0.0.1:7700"`
	APIKey            string        `yaml:"api_key"             env:"SEARCH_API_KEY"`
	Index             string        `yaml:"index"               env:"SEARCH_INDEX"               env-default:"publication"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"SEARCH_REQUESTS_PER_SECOND" env-default:"20"`
	Timeout           time.Duration `yaml:"timeout"             env:"SEARCH_TIMEOUT"             env-default:"10s"`
	TaskPoll          time.Duration `yaml:"task_poll"           env:"SEARCH_TASK_POLL"           env-default:"50ms"`
	TaskTimeout       time.Duration `yaml:"task_timeout"        env:"SEARCH_TASK_TIMEOUT"        env-default:"30s"`
}

// ContentConfig limits stored payloads.
type ContentConfig struct {
	MaxBytes  int `yaml:"max_bytes"  env:"CONTENT_MAX_BYTES"  env-default:"786432"`
	ZstdLevel int `yaml:"zstd_level" env:"CONTENT_ZSTD_LEVEL" env-default:"3"`
}

// RetentionConfig controls how long soft-deleted rows stay recoverable.
type RetentionConfig struct {
	DeletedTTL time.Duration `yaml:"deleted_ttl" env:"RETENTION_DELETED_TTL" env-default:"4800h"`
}

// CollectionConfig bounds the collection tree.
type CollectionConfig struct {
	MaxChildren int `yaml:"max_children" env:"COLLECTION_MAX_CHILDREN" env-default:"10000"`
	MaxDepth    int `yaml:"max_depth"    env:"COLLECTION_MAX_DEPTH"    env-default:"8"`
}

// SyncConfig configures the index sync pipeline.
type SyncConfig struct {
	Workers      int           `yaml:"workers"       env:"SYNC_WORKERS"       env-default:"4"`
	Cron         string        `yaml:"cron"          env:"SYNC_CRON"          env-default:"*/5 * * * *"`
	LookbackDays int           `yaml:"lookback_days" env:"SYNC_LOOKBACK_DAYS" env-default:"2"`
	IndexRetries uint64        `yaml:"index_retries" env:"SYNC_INDEX_RETRIES" env-default:"3"`
	RetryBackoff time.Duration `yaml:"retry_backoff" env:"SYNC_RETRY_BACKOFF" env-default:"100ms"`
}

// OpsConfig configures the health and metrics listener of long-running commands.
type OpsConfig struct {
	ListenAddr      string        `yaml:"listen_addr"      env:"OPS_LISTEN_ADDR"      env-default:":9090"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"OPS_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
