package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhvanit-ts/hrms-sub001/pkg/config"
)

type testConfig struct {
	Name    string        `env:"TEST_CFG_NAME" envDefault:"notifier"`
	Workers int           `env:"TEST_CFG_WORKERS" envDefault:"10"`
	Timeout time.Duration `env:"TEST_CFG_TIMEOUT" envDefault:"30s"`
}

type overrideConfig struct {
	Addr string `env:"TEST_CFG_ADDR" envDefault:":8080"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "notifier", cfg.Name)
	assert.Equal(t, 10, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TEST_CFG_ADDR", ":9091")

	var cfg overrideConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, ":9091", cfg.Addr)
}

func TestLoad_CachedAcrossCalls(t *testing.T) {
	var first testConfig
	require.NoError(t, config.Load(&first))

	// Changing the environment after the first load must not affect the
	// cached value for the same type.
	t.Setenv("TEST_CFG_WORKERS", "99")

	var second testConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, first.Workers, second.Workers)
}

func TestLoad_NilPointer(t *testing.T) {
	err := config.Load[testConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}
