// Package config loads and validates harvest configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const dateLayout = "20060102"

// Config captures all tool configuration knobs loaded via Viper.
type Config struct {
	UserAgent string          `mapstructure:"user_agent"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Wiki      WikiConfig      `mapstructure:"wiki"`
	Pageviews PageviewsConfig `mapstructure:"pageviews"`
	Crawl     CrawlConfig     `mapstructure:"crawl"`
	Harvest   HarvestConfig   `mapstructure:"harvest"`
	Store     StoreConfig     `mapstructure:"store"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Status    StatusConfig    `mapstructure:"status"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// HTTPConfig configures client timeout, retry, and pacing behavior shared
// by both upstream APIs.
type HTTPConfig struct {
	TimeoutSeconds        int     `mapstructure:"timeout_seconds"`
	MaxAttempts           int     `mapstructure:"max_attempts"`
	BackoffInitialSeconds int     `mapstructure:"backoff_initial_seconds"`
	BackoffMaxSeconds     int     `mapstructure:"backoff_max_seconds"`
	RequestsPerSecond     float64 `mapstructure:"requests_per_second"`
	Burst                 int     `mapstructure:"burst"`
}

// Timeout returns the per-request timeout as a duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BackoffInitial returns the first retry delay as a duration.
func (c HTTPConfig) BackoffInitial() time.Duration {
	return time.Duration(c.BackoffInitialSeconds) * time.Second
}

// BackoffMax returns the retry delay ceiling as a duration.
func (c HTTPConfig) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxSeconds) * time.Second
}

// WikiConfig locates the Wikipedia action API and article site.
type WikiConfig struct {
	APIURL  string `mapstructure:"api_url"`
	SiteURL string `mapstructure:"site_url"`
}

// PageviewsConfig locates the pageviews REST API and fixes the query shape.
type PageviewsConfig struct {
	APIURL      string `mapstructure:"api_url"`
	Project     string `mapstructure:"project"`
	Access      string `mapstructure:"access"`
	Agent       string `mapstructure:"agent"`
	Granularity string `mapstructure:"granularity"`
	Start       string `mapstructure:"start"`
	End         string `mapstructure:"end"`
}

// CrawlConfig governs category traversal.
type CrawlConfig struct {
	Depth   int      `mapstructure:"depth"`
	Exclude []string `mapstructure:"exclude"`
}

// HarvestConfig governs the enrichment phases.
type HarvestConfig struct {
	Concurrency     int  `mapstructure:"concurrency"`
	ContinueOnError bool `mapstructure:"continue_on_error"`
}

// Provider names accepted by the optional side channels.
const (
	ProviderNone     = "none"
	ProviderPostgres = "postgres"
	ProviderGCS      = "gcs"
	ProviderLocal    = "local"
	ProviderPubSub   = "pubsub"
)

// StoreConfig selects the combined dataset mirror.
type StoreConfig struct {
	Provider string              `mapstructure:"provider"`
	Postgres StorePostgresConfig `mapstructure:"postgres"`
}

// StorePostgresConfig locates the Postgres mirror.
type StorePostgresConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// ArchiveConfig selects where run outputs are archived.
type ArchiveConfig struct {
	Provider string             `mapstructure:"provider"`
	GCS      ArchiveGCSConfig   `mapstructure:"gcs"`
	Local    ArchiveLocalConfig `mapstructure:"local"`
}

// ArchiveGCSConfig locates the GCS archive bucket.
type ArchiveGCSConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// ArchiveLocalConfig locates the local archive directory.
type ArchiveLocalConfig struct {
	Dir string `mapstructure:"dir"`
}

// NotifyConfig selects the run completion notifier.
type NotifyConfig struct {
	Provider string             `mapstructure:"provider"`
	PubSub   NotifyPubSubConfig `mapstructure:"pubsub"`
}

// NotifyPubSubConfig locates the Pub/Sub topic.
type NotifyPubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// StatusConfig toggles the in-run status HTTP server.
type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig controls zap output and optional file rotation.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
	Compress    bool   `mapstructure:"compress"`
}

// Load builds a Config from disk/environment. An empty path falls back to
// wikiharvest.yaml in the working directory when one exists.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WIKIHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("wikiharvest")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("user_agent", "wikiharvest/1.0 (https://github.com/wikiharvest/wikiharvest)")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_attempts", 6)
	v.SetDefault("http.backoff_initial_seconds", 1)
	v.SetDefault("http.backoff_max_seconds", 30)
	v.SetDefault("http.requests_per_second", 10)
	v.SetDefault("http.burst", 2)
	v.SetDefault("wiki.api_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("wiki.site_url", "https://en.wikipedia.org")
	v.SetDefault("pageviews.api_url", "https://wikimedia.org/api/rest_v1/metrics/pageviews/per-article")
	v.SetDefault("pageviews.project", "en.wikipedia.org")
	v.SetDefault("pageviews.access", "all-access")
	v.SetDefault("pageviews.agent", "user")
	v.SetDefault("pageviews.granularity", "monthly")
	v.SetDefault("pageviews.start", "20240801")
	v.SetDefault("pageviews.end", "20250701")
	v.SetDefault("crawl.depth", 2)
	v.SetDefault("crawl.exclude", []string{})
	v.SetDefault("harvest.concurrency", 4)
	v.SetDefault("harvest.continue_on_error", false)
	v.SetDefault("store.provider", ProviderNone)
	v.SetDefault("store.postgres.table", "combined_records")
	v.SetDefault("archive.provider", ProviderNone)
	v.SetDefault("archive.gcs.prefix", "wikiharvest")
	v.SetDefault("notify.provider", ProviderNone)
	v.SetDefault("notify.pubsub.topic_id", "wikiharvest-runs")
	v.SetDefault("status.enabled", false)
	v.SetDefault("status.addr", ":8889")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("logging.compress", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxAttempts < 1 {
		return fmt.Errorf("http.max_attempts must be >= 1")
	}
	if c.Harvest.Concurrency < 1 || c.Harvest.Concurrency > 64 {
		return fmt.Errorf("harvest.concurrency must be in 1..64")
	}
	start, err := time.Parse(dateLayout, c.Pageviews.Start)
	if err != nil {
		return fmt.Errorf("pageviews.start must be YYYYMMDD: %w", err)
	}
	end, err := time.Parse(dateLayout, c.Pageviews.End)
	if err != nil {
		return fmt.Errorf("pageviews.end must be YYYYMMDD: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("pageviews.end %s is before pageviews.start %s", c.Pageviews.End, c.Pageviews.Start)
	}

	switch c.Store.Provider {
	case ProviderNone:
	case ProviderPostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn must be set when store.provider is postgres")
		}
	default:
		return fmt.Errorf("unknown store.provider %q", c.Store.Provider)
	}

	switch c.Archive.Provider {
	case ProviderNone:
	case ProviderGCS:
		if c.Archive.GCS.Bucket == "" {
			return fmt.Errorf("archive.gcs.bucket must be set when archive.provider is gcs")
		}
	case ProviderLocal:
		if c.Archive.Local.Dir == "" {
			return fmt.Errorf("archive.local.dir must be set when archive.provider is local")
		}
	default:
		return fmt.Errorf("unknown archive.provider %q", c.Archive.Provider)
	}

	switch c.Notify.Provider {
	case ProviderNone:
	case ProviderPubSub:
		if c.Notify.PubSub.ProjectID == "" || c.Notify.PubSub.TopicID == "" {
			return fmt.Errorf("notify.pubsub.project_id and topic_id must be set when notify.provider is pubsub")
		}
	default:
		return fmt.Errorf("unknown notify.provider %q", c.Notify.Provider)
	}

	return nil
}
