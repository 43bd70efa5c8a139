package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/kinship/pkg/kinship/internalerr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(repoRoot(t), "testdata", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(repoRoot(t), "testdata", "familytree.mg"), cfg.FactBase.Rules)
	assert.Equal(t, "Ntate", cfg.Titles.Male)
	assert.Equal(t, "Mme", cfg.Titles.Female)
	assert.Equal(t, 5*time.Minute, cfg.Titles.CacheTTL)
	assert.Equal(t, 32, cfg.Server.MaxConns)
	assert.Equal(t, 10.0, cfg.Server.RatePerSecond)
	assert.Equal(t, 20, cfg.Server.Burst)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, `fact_base:
  rules: /srv/family.mg
  facts:
    - extra.pl
  database: facts.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, "/srv/family.mg", cfg.FactBase.Rules)
	assert.Equal(t, []string{filepath.Join(dir, "extra.pl")}, cfg.FactBase.Facts)
	assert.Equal(t, filepath.Join(dir, "facts.db"), cfg.FactBase.Database)
	assert.Equal(t, Default().Server, cfg.Server)
	assert.Equal(t, Default().Titles, cfg.Titles)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "fact_base: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "titles:\n  male: Mr\n"))
	assert.True(t, internalerr.Is(err, internalerr.ErrInvalidConfig), "got %v", err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Default()
		c.FactBase.Rules = "family.mg"
		return c
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"missing rules":      func(c *Config) { c.FactBase.Rules = "" },
		"empty male title":   func(c *Config) { c.Titles.Male = "" },
		"empty female title": func(c *Config) { c.Titles.Female = "" },
		"negative ttl":       func(c *Config) { c.Titles.CacheTTL = -time.Second },
		"negative conns":     func(c *Config) { c.Server.MaxConns = -1 },
		"negative rate":      func(c *Config) { c.Server.RatePerSecond = -1 },
		"zero burst":         func(c *Config) { c.Server.Burst = 0 },
		"negative timeout":   func(c *Config) { c.Server.ReadTimeout = -time.Second },
		"empty facts entry":  func(c *Config) { c.FactBase.Facts = []string{""} },
		"bad log level":      func(c *Config) { c.Log.Level = "chatty" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, internalerr.Is(err, internalerr.ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestRateLimitOffAllowsZeroBurst(t *testing.T) {
	c := Default()
	c.FactBase.Rules = "family.mg"
	c.Server.RatePerSecond = 0
	c.Server.Burst = 0
	assert.NoError(t, c.Validate())
}

func TestViperLayering(t *testing.T) {
	path := writeConfig(t, `fact_base:
  rules: family.mg
server:
  addr: ":9000"
`)
	t.Setenv("KINSHIP_SERVER_BURST", "7")

	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	v.Set("log.level", "warn")

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "family.mg"), cfg.FactBase.Rules)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 7, cfg.Server.Burst)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, Default().Server.ReadTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, Default().Titles, cfg.Titles)
}

func TestFromViperValidates(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	_, err := FromViper(v)
	assert.True(t, internalerr.Is(err, internalerr.ErrInvalidConfig))
}

func TestYAMLRoundTripKeepsDurations(t *testing.T) {
	c := Default()
	c.FactBase.Rules = "family.mg"

	out, err := yaml.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(out), "cache_ttl: 10m0s")

	var back Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, c, back)
}

func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", ".."))
}
