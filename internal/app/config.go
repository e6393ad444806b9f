package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/promo-tracker/internal/calendar"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the server configuration, loadable from PROMO_-prefixed
// environment variables, flags, or YAML files.
type Config struct {
	Addr         string   `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string   `usage:"PostgreSQL connection URL; empty keeps purchases in memory" flag:"database-url"`
	CatalogFiles []string `default:"data/promotions.json" usage:"Promotion catalog JSON files (.gz allowed)" flag:"catalog-files"`
	Today        string   `usage:"Fixed reference date YYYY-MM-DD instead of the wall clock" flag:"today"`
	CacheSize    int      `default:"1024" usage:"Maximum memoized pipeline results" flag:"cache-size"`
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// RateLimitConfig controls the per-client limiter on mutating requests.
type RateLimitConfig struct {
	Max    int           `default:"60" usage:"Max mutating requests per window; 0 disables"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from the environment, config files and
// command line flags.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

func loadConfig(args []string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PROMO",
		Args:      args,
		Files:     []string{"config.yaml", "/etc/promo/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.CatalogFiles) == 0 {
		return errors.New("at least one catalog file is required")
	}
	if c.CacheSize < 0 {
		return errors.Errorf("cache size %d is negative", c.CacheSize)
	}
	if _, err := c.referenceDate(); err != nil {
		return err
	}
	return nil
}

// referenceDate parses Today. A zero Date means the wall clock.
func (c *Config) referenceDate() (calendar.Date, error) {
	if c.Today == "" {
		return calendar.Date{}, nil
	}
	d, err := calendar.Parse(c.Today)
	if err != nil {
		return calendar.Date{}, errors.Wrap(err, "today")
	}
	return d, nil
}

// clock returns the reference time source for the tracker.
func (c *Config) clock() func() time.Time {
	d, _ := c.referenceDate()
	if d.IsZero() {
		return time.Now
	}
	fixed := d.Time()
	return func() time.Time { return fixed }
}

// applyPlatformDefaults maps the DATABASE_URL and PORT variables set by
// hosting platforms onto the PROMO_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
