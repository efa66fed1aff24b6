package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"github.com/somerandev/rpgmaker-site/internal/common"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "RPGSITE_"

// Duration is a time.Duration read from strings such as "500ms" in config files and the environment.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds the settings shared by every command.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log_level" env:"LOG_LEVEL"`
	// Environment tags telemetry, e.g. "lcl" or "ci".
	Environment string `toml:"environment" env:"ENVIRONMENT"`
	// OTLPEndpoint enables log, metric and trace export over OTLP gRPC when set.
	OTLPEndpoint string `toml:"otlp_endpoint" env:"OTLP_ENDPOINT"`

	UserAgent   string   `toml:"user_agent" env:"USER_AGENT"`
	HTTPTimeout Duration `toml:"http_timeout" env:"HTTP_TIMEOUT"`
	// RequestDelay is the pause between two legacy page reads of the screenshot pass.
	RequestDelay Duration `toml:"request_delay" env:"REQUEST_DELAY"`
	// RequestInterval is the minimum spacing of any two outgoing requests. Zero disables throttling.
	RequestInterval Duration `toml:"request_interval" env:"REQUEST_INTERVAL"`
	Concurrency     int      `toml:"concurrency" env:"CONCURRENCY"`
	MaxBodyBytes    int64    `toml:"max_body_bytes" env:"MAX_BODY_BYTES"`

	// CacheDir holds the scrape cache. Empty disables caching.
	CacheDir string   `toml:"cache_dir" env:"CACHE_DIR"`
	CacheTTL Duration `toml:"cache_ttl" env:"CACHE_TTL"`

	LegacySiteURL  string `toml:"legacy_site_url" env:"LEGACY_SITE_URL"`
	ArchiveBaseURL string `toml:"archive_base_url" env:"ARCHIVE_BASE_URL"`
	RawRepoBaseURL string `toml:"raw_repo_base_url" env:"RAW_REPO_BASE_URL"`
	GithubRepoURL  string `toml:"github_repo_url" env:"GITHUB_REPO_URL"`
	SiteBaseURL    string `toml:"site_base_url" env:"SITE_BASE_URL"`

	PreviewListenAddr string `toml:"preview_listen_addr" env:"PREVIEW_LISTEN_ADDR"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		LogLevel:          "info",
		Environment:       "lcl",
		UserAgent:         "rpgmaker-site/1.0 (+https://someran.dev/rpgmaker)",
		HTTPTimeout:       Duration{30 * time.Second},
		RequestDelay:      Duration{500 * time.Millisecond},
		Concurrency:       1,
		MaxBodyBytes:      20 * 1024 * 1024,
		CacheDir:          ".cache",
		CacheTTL:          Duration{24 * time.Hour},
		LegacySiteURL:     "http://sumrndm.site/",
		ArchiveBaseURL:    "https://raw.githubusercontent.com/SomeRanDev/sumrndm.site-archive/refs/heads/main/sumrndm.site",
		RawRepoBaseURL:    "https://raw.githubusercontent.com/SomeRanDev/RPGMakerPlugins/refs/heads/master",
		GithubRepoURL:     "https://github.com/SomeRanDev/RPGMakerPlugins",
		SiteBaseURL:       "https://someran.dev/rpgmaker",
		PreviewListenAddr: ":3593",
	}
}

// Load returns the defaults overridden by the TOML file at path, when path is not empty,
// and then by RPGSITE_ prefixed environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to os.ReadFile: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to toml.Unmarshal %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to env.ParseWithOptions: %w", err)
	}

	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency: must be at least 1, got %d", c.Concurrency))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_body_bytes: must be positive, got %d", c.MaxBodyBytes))
	}
	if c.HTTPTimeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("http_timeout: must be positive, got %s", c.HTTPTimeout))
	}
	if c.RequestDelay.Duration < 0 || c.RequestInterval.Duration < 0 {
		errs = append(errs, errors.New("request_delay and request_interval must not be negative"))
	}

	for name, u := range map[string]string{
		"legacy_site_url":   c.LegacySiteURL,
		"archive_base_url":  c.ArchiveBaseURL,
		"raw_repo_base_url": c.RawRepoBaseURL,
		"github_repo_url":   c.GithubRepoURL,
		"site_base_url":     c.SiteBaseURL,
	} {
		if err := common.ValidateURL(u); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}
