package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/kinship/pkg/kinship/internalerr"
)

// Load reads a YAML config file over Default, resolves fact base paths
// against the file's directory and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, internalerr.Wrapf(err, "read config %s", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, internalerr.Wrapf(err, "parse config %s", path)
	}
	cfg.ResolvePaths(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return Config{}, internalerr.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// EnvPrefix prefixes environment overrides: KINSHIP_SERVER_ADDR sets
// server.addr.
const EnvPrefix = "KINSHIP"

// BindEnv makes v read KINSHIP_* environment variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// SetDefaults registers every key of Default with v so that environment
// variables and flags can override any of them.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("fact_base.rules", d.FactBase.Rules)
	v.SetDefault("fact_base.facts", d.FactBase.Facts)
	v.SetDefault("fact_base.database", d.FactBase.Database)

	v.SetDefault("titles.male", d.Titles.Male)
	v.SetDefault("titles.female", d.Titles.Female)
	v.SetDefault("titles.cache_ttl", d.Titles.CacheTTL)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_conns", d.Server.MaxConns)
	v.SetDefault("server.rate_per_second", d.Server.RatePerSecond)
	v.SetDefault("server.burst", d.Server.Burst)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
}

// FromViper decodes the merged view of v. Relative fact base paths from a
// config file are resolved against that file's directory.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, internalerr.Wrap(err, "unmarshal config")
	}
	if used := v.ConfigFileUsed(); used != "" {
		cfg.ResolvePaths(filepath.Dir(used))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
