package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gokaycavdar/go-urlguard/pkg/logging"
)

// EnvPrefix prefixes every environment override, e.g. URLGUARD_SERVER_ADDR.
const EnvPrefix = "URLGUARD"

// Config is the complete runtime configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	GeoIP    GeoIPConfig    `mapstructure:"geoip"`
	Log      logging.Config `mapstructure:"log"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	RateLimit      float64       `mapstructure:"rate_limit"` // requests/second, <= 0 disables
	RateBurst      int           `mapstructure:"rate_burst"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	RuntimeMetrics bool          `mapstructure:"runtime_metrics"`
}

type AnalysisConfig struct {
	StepDelay       time.Duration `mapstructure:"step_delay"`
	PassProbability float64       `mapstructure:"pass_probability"`
	Seed            uint64        `mapstructure:"seed"`      // 0: seed from the clock
	Blocklist       string        `mapstructure:"blocklist"` // optional local host blocklist file
}

// GeoIPConfig points at local MaxMind databases. Both empty disables lookups.
type GeoIPConfig struct {
	CityDB string `mapstructure:"city_db"`
	ASNDB  string `mapstructure:"asn_db"`
}

// Enabled reports whether any database is configured.
func (g GeoIPConfig) Enabled() bool {
	return g.CityDB != "" || g.ASNDB != ""
}

// NewViper returns a viper instance with defaults and environment binding.
// Callers may bind flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.session_ttl", "30m")
	v.SetDefault("server.sweep_interval", "1m")
	v.SetDefault("server.runtime_metrics", true)
	v.SetDefault("analysis.step_delay", "800ms")
	v.SetDefault("analysis.pass_probability", 0.7)
	v.SetDefault("analysis.seed", 0)
	v.SetDefault("analysis.blocklist", "")
	v.SetDefault("geoip.city_db", "")
	v.SetDefault("geoip.asn_db", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
}

// Load reads an optional YAML file (path may be empty) on top of v's
// defaults, environment and bound flags, then validates the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		errs = append(errs, fmt.Errorf("server.rate_burst must be > 0 when rate limiting (got %d)", c.Server.RateBurst))
	}
	if c.Server.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("server.session_ttl must be > 0 (got %s)", c.Server.SessionTTL))
	}
	if c.Server.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("server.sweep_interval must be > 0 (got %s)", c.Server.SweepInterval))
	}
	if c.Analysis.StepDelay < 0 {
		errs = append(errs, fmt.Errorf("analysis.step_delay must be >= 0 (got %s)", c.Analysis.StepDelay))
	}
	if c.Analysis.PassProbability <= 0 || c.Analysis.PassProbability > 1 {
		errs = append(errs, fmt.Errorf("analysis.pass_probability must be in (0, 1] (got %v)", c.Analysis.PassProbability))
	}
	return errors.Join(errs...)
}
