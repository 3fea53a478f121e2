package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv makes sure none of the variables we read leak in from the
// machine running the tests. t.Setenv restores the original values.
func clearEnv(t *testing.T) {
	t.Helper()
	for name := range envKeys {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	// A path that doesn't exist should be skipped, not fail.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "", cfg.Perplexity.APIKey)
	assert.Equal(t, DefaultAPIURL, cfg.Perplexity.APIURL)
	assert.Equal(t, DefaultSearchURL, cfg.Perplexity.SearchURL)
	assert.Equal(t, DefaultModel, cfg.Perplexity.Model)
	assert.Equal(t, 60*time.Second, cfg.Perplexity.Timeout())
	assert.Equal(t, "", cfg.Auth.ClientIdentKey)
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)

	t.Setenv("PERPLEXITY_API_KEY", "pplx-secret")
	t.Setenv("PERPLEXITY_API_URL", "http://localhost:9999/chat")
	t.Setenv("PERPLEXITY_SEARCH_URL", "http://localhost:9999/search")
	t.Setenv("PERPLEXITY_MODEL", "sonar")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "2.5")
	t.Setenv("CLIENT_IDENT_KEY", "shared")
	t.Setenv("PORT", "3000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "pplx-secret", cfg.Perplexity.APIKey)
	assert.Equal(t, "http://localhost:9999/chat", cfg.Perplexity.APIURL)
	assert.Equal(t, "http://localhost:9999/search", cfg.Perplexity.SearchURL)
	assert.Equal(t, "sonar", cfg.Perplexity.Model)
	assert.Equal(t, 2500*time.Millisecond, cfg.Perplexity.Timeout())
	assert.Equal(t, "shared", cfg.Auth.ClientIdentKey)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  port: 9090
  read_timeout: 10s
  write_timeout: 90s

perplexity:
  model: sonar-pro
  timeout_seconds: 15

auth:
  client_ident_key: from-file
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	// The environment wins over the file.
	t.Setenv("CLIENT_IDENT_KEY", "from-env")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout, "unset keys keep defaults")
	assert.Equal(t, "sonar-pro", cfg.Perplexity.Model)
	assert.Equal(t, 15*time.Second, cfg.Perplexity.Timeout())
	assert.Equal(t, DefaultAPIURL, cfg.Perplexity.APIURL)
	assert.Equal(t, "from-env", cfg.Auth.ClientIdentKey)
}

func TestLoadUnrelatedEnvIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "1234")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestLoadEmptyValuesKeepDefaults(t *testing.T) {
	clearEnv(t)

	// Set-but-empty variables, as in a .env line "REQUEST_TIMEOUT_SECONDS=".
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "")
	t.Setenv("PORT", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Perplexity.Timeout(), "upstream calls must stay bounded")
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestLoadNonPositiveTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "-5")
	t.Setenv("PORT", "0")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Perplexity.Timeout())
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestLoadWriteTimeoutFollowsUpstreamTimeout(t *testing.T) {
	clearEnv(t)

	// A long upstream timeout stretches the server's write timeout so the
	// handler can still answer after the upstream call gives up.
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "300")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 300*time.Second, cfg.Perplexity.Timeout())
	assert.Equal(t, 310*time.Second, cfg.Server.WriteTimeout)

	// A short one leaves the default alone.
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "5")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 120*time.Second, cfg.Server.WriteTimeout)
}
