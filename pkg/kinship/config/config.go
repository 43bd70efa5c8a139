// Package config holds the settings for the fact base, title rendering, the
// HTTP shell and logging.
package config

import (
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/cognicore/kinship/pkg/kinship/internalerr"
)

// Config is the complete runtime configuration.
type Config struct {
	FactBase FactBase `yaml:"fact_base" mapstructure:"fact_base"`
	Titles   Titles   `yaml:"titles" mapstructure:"titles"`
	Server   Server   `yaml:"server" mapstructure:"server"`
	Log      Log      `yaml:"log" mapstructure:"log"`
}

// FactBase locates the family tree.
type FactBase struct {
	// Rules is the Mangle program with the relation rules. Required.
	Rules string `yaml:"rules" mapstructure:"rules"`
	// Facts are extra Prolog-style ground fact files.
	Facts []string `yaml:"facts,omitempty" mapstructure:"facts"`
	// Database is an optional SQLite fact database.
	Database string `yaml:"database,omitempty" mapstructure:"database"`
}

// Titles configures honorific prefixes.
type Titles struct {
	Male     string        `yaml:"male" mapstructure:"male"`
	Female   string        `yaml:"female" mapstructure:"female"`
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// Server configures the HTTP shell.
type Server struct {
	Addr          string        `yaml:"addr" mapstructure:"addr"`
	MaxConns      int           `yaml:"max_conns" mapstructure:"max_conns"`
	RatePerSecond float64       `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int           `yaml:"burst" mapstructure:"burst"`
	ReadTimeout   time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// Log configures the zap logger.
type Log struct {
	Level string `yaml:"level" mapstructure:"level"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
}

// Default returns the built-in configuration. Rules is left empty.
func Default() Config {
	return Config{
		Titles: Titles{
			Male:     "Ntate",
			Female:   "Mme",
			CacheTTL: 10 * time.Minute,
		},
		Server: Server{
			Addr:          ":8080",
			MaxConns:      64,
			RatePerSecond: 20,
			Burst:         40,
			ReadTimeout:   5 * time.Second,
			WriteTimeout:  10 * time.Second,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Validate reports the first problem found, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.FactBase.Rules == "":
		return invalid("fact_base.rules is required")
	case c.Titles.Male == "" || c.Titles.Female == "":
		return invalid("titles.male and titles.female must be set")
	case c.Titles.CacheTTL < 0:
		return invalid("titles.cache_ttl must not be negative")
	case c.Server.MaxConns < 0:
		return invalid("server.max_conns must not be negative")
	case c.Server.RatePerSecond < 0:
		return invalid("server.rate_per_second must not be negative")
	case c.Server.RatePerSecond > 0 && c.Server.Burst < 1:
		return invalid("server.burst must be at least 1 when rate limiting is on")
	case c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0:
		return invalid("server timeouts must not be negative")
	}

	for _, f := range c.FactBase.Facts {
		if f == "" {
			return invalid("fact_base.facts has an empty entry")
		}
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return internalerr.Wrapf(internalerr.ErrInvalidConfig, "log.level %q", c.Log.Level)
	}
	return nil
}

// ResolvePaths makes relative fact base paths relative to dir.
func (c *Config) ResolvePaths(dir string) {
	c.FactBase.Rules = resolve(dir, c.FactBase.Rules)
	c.FactBase.Database = resolve(dir, c.FactBase.Database)
	for i, f := range c.FactBase.Facts {
		c.FactBase.Facts[i] = resolve(dir, f)
	}
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func invalid(msg string) error {
	return internalerr.Wrap(internalerr.ErrInvalidConfig, msg)
}
