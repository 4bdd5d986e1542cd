package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	App    App    `mapstructure:"app"`
	APIKey string `mapstructure:"api_key"`
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(DotEnvFileKey, filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load(&testConfig{}, func(v *viper.Viper) {
		Setup(v, "app")
		v.SetDefault("api_key", "devkey")
	})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.App.ShutdownTimeout)
	assert.Equal(t, "devkey", cfg.APIKey)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(DotEnvFileKey, filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("API_KEY", "from-env")

	cfg, err := Load(&testConfig{}, func(v *viper.Viper) {
		Setup(v, "app")
		v.SetDefault("api_key", "devkey")
	})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.App.ShutdownTimeout)
	assert.Equal(t, "from-env", cfg.APIKey)
}

func TestLoadDotEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("DOTENV_TEST_KEY=from-file\n"), 0o600))
	t.Setenv(DotEnvFileKey, file)
	t.Cleanup(func() { os.Unsetenv("DOTENV_TEST_KEY") })

	require.NoError(t, LoadDotEnv())
	assert.Equal(t, "from-file", os.Getenv("DOTENV_TEST_KEY"))
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("DOTENV_KEEP_KEY=from-file\n"), 0o600))
	t.Setenv(DotEnvFileKey, file)
	t.Setenv("DOTENV_KEEP_KEY", "from-env")

	require.NoError(t, LoadDotEnv())
	assert.Equal(t, "from-env", os.Getenv("DOTENV_KEEP_KEY"))
}
