package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	HTTP struct {
		Port string `yaml:"port" env:"SAMPLE_HTTP_PORT"`
	} `yaml:"http"`
	Market struct {
		FeeAccount string        `yaml:"feeAccount"`
		Interval   time.Duration `yaml:"interval"`
		Enabled    bool          `yaml:"enabled"`
	} `yaml:"market"`
	Workers int      `yaml:"workers" default:"4"`
	Origins []string `yaml:"origins" env:"SAMPLE_ORIGINS"`
	Region  string   `yaml:"region" default:"eu"`
	Ignored string   `env:"-" default:"x"`
}

type validated struct {
	Secret string `yaml:"secret" env:"SAMPLE_SECRET"`
}

func (v *validated) Validate() error {
	if v.Secret == "" {
		return errors.New("secret required")
	}
	return nil
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: \"9000\"\nmarket:\n  feeAccount: platform\nworkers: 2\n"), 0o600))

	t.Setenv(FileEnv, path)
	t.Setenv("SAMPLE_HTTP_PORT", "9100")
	t.Setenv("MARKET_INTERVAL", "90s")
	t.Setenv("MARKET_ENABLED", "true")

	var cfg sample
	require.NoError(t, LoadConfig(&cfg))

	assert.Equal(t, "9100", cfg.HTTP.Port)
	assert.Equal(t, "platform", cfg.Market.FeeAccount)
	assert.Equal(t, 90*time.Second, cfg.Market.Interval)
	assert.True(t, cfg.Market.Enabled)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "eu", cfg.Region)
}

func TestLoadConfigDefaultsAndLists(t *testing.T) {
	t.Setenv(FileEnv, "")
	t.Setenv("SAMPLE_ORIGINS", "a.example, b.example,")
	t.Setenv("REGION", "us")

	var cfg sample
	require.NoError(t, LoadConfig(&cfg))

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "us", cfg.Region)
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.Origins)
	assert.Empty(t, cfg.Ignored)
}

func TestLoadConfigRejectsBadDefault(t *testing.T) {
	t.Setenv(FileEnv, "")
	var cfg struct {
		Timeout time.Duration `default:"soon"`
	}
	assert.Error(t, LoadConfig(&cfg))
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	t.Setenv(FileEnv, "")

	assert.Error(t, LoadConfig(nil))
	assert.Error(t, LoadConfig(sample{}))

	t.Setenv("WORKERS", "many")
	var cfg sample
	assert.Error(t, LoadConfig(&cfg))
}

func TestLoadConfigRunsValidator(t *testing.T) {
	t.Setenv(FileEnv, "")

	var cfg validated
	err := LoadConfig(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret required")

	t.Setenv("SAMPLE_SECRET", "s3cret")
	require.NoError(t, LoadConfig(&cfg))
	assert.Equal(t, "s3cret", cfg.Secret)
}
