package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultStarColor is the star color used when STAR_COLOR is unset. It also
// selects the long ratings timeout tier.
const DefaultStarColor = "black"

// Config is the process-wide service configuration. It is built once by Load
// and must not be mutated afterwards.
type Config struct {
	// Ratings
	RatingsEnabled      bool          `env:"ENABLE_RATINGS" envDefault:"false"`
	StarColor           string        `env:"STAR_COLOR" envDefault:"black"`
	ServicesDomain      string        `env:"SERVICES_DOMAIN"`
	RatingsHostname     string        `env:"RATINGS_HOSTNAME" envDefault:"ratings"`
	RatingsPort         string        `env:"RATINGS_SERVICE_PORT" envDefault:"9080"`
	RatingsTimeoutLong  time.Duration `env:"RATINGS_TIMEOUT_LONG" envDefault:"10s"`
	RatingsTimeoutShort time.Duration `env:"RATINGS_TIMEOUT_SHORT" envDefault:"2500ms"`

	// Identity surfaced in every payload
	PodName     string `env:"HOSTNAME"`
	ClusterName string `env:"CLUSTER_NAME"`

	// Server
	Port        string `env:"PORT" envDefault:"9080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Optional ratings cache
	RedisURL        string        `env:"REDIS_URL"`
	RatingsCacheTTL time.Duration `env:"RATINGS_CACHE_TTL" envDefault:"30s"`

	// RatingsServiceURL is derived from the hostname, domain and port.
	RatingsServiceURL string
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	return LoadWithOptions(env.Options{})
}

// LoadWithOptions is Load with explicit parser options. Tests use it to
// supply an environment map instead of the process environment.
func LoadWithOptions(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	cfg.StarColor = strings.TrimSpace(cfg.StarColor)
	if cfg.StarColor == "" {
		cfg.StarColor = DefaultStarColor
	}
	cfg.RatingsServiceURL = ratingsServiceURL(cfg.RatingsHostname, cfg.ServicesDomain, cfg.RatingsPort)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants Load relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.RatingsHostname == "" {
		errs = append(errs, errors.New("RATINGS_HOSTNAME must not be empty"))
	}
	if c.RatingsPort == "" {
		errs = append(errs, errors.New("RATINGS_SERVICE_PORT must not be empty"))
	}
	if c.RatingsTimeoutLong <= 0 {
		errs = append(errs, fmt.Errorf("RATINGS_TIMEOUT_LONG must be positive, got %s", c.RatingsTimeoutLong))
	}
	if c.RatingsTimeoutShort <= 0 {
		errs = append(errs, fmt.Errorf("RATINGS_TIMEOUT_SHORT must be positive, got %s", c.RatingsTimeoutShort))
	}
	if c.RatingsCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("RATINGS_CACHE_TTL must not be negative, got %s", c.RatingsCacheTTL))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// RatingsTimeout returns the deadline for one call to the ratings service.
// The default star color gets the long tier, any other color the short one.
func (c *Config) RatingsTimeout() time.Duration {
	if c.StarColor == DefaultStarColor {
		return c.RatingsTimeoutLong
	}
	return c.RatingsTimeoutShort
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func ratingsServiceURL(hostname, domain, port string) string {
	if domain = strings.TrimPrefix(strings.TrimSpace(domain), "."); domain != "" {
		domain = "." + domain
	}
	return fmt.Sprintf("http://%s%s:%s/ratings", hostname, domain, port)
}
