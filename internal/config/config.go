// Package config handles loading the proxy's configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default values used when neither the YAML file nor the environment
// provide a setting.
const (
	DefaultAPIURL         = "https://api.perplexity.ai/chat/completions"
	DefaultSearchURL      = "https://api.perplexity.ai/search"
	DefaultModel          = "llama-3.1-sonar-small-128k-online"
	DefaultTimeoutSeconds = 60
	DefaultPort           = 8080

	// writeHeadroom is how much longer than the upstream timeout the
	// server keeps a response open, so a 502 for a timed-out call can
	// still be written back.
	writeHeadroom = 10 * time.Second
)

// Config is the top-level configuration for the proxy. It is built once in
// main and only read afterwards, so handlers can share it without locking.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Perplexity PerplexityConfig `koanf:"perplexity"`
	Auth       AuthConfig       `koanf:"auth"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// PerplexityConfig holds everything the upstream client needs.
// An empty APIKey means "not configured"; the client refuses to call out
// without one.
type PerplexityConfig struct {
	APIKey         string  `koanf:"api_key"`
	APIURL         string  `koanf:"api_url"`
	SearchURL      string  `koanf:"search_url"`
	Model          string  `koanf:"model"`
	TimeoutSeconds float64 `koanf:"timeout_seconds"`
}

// Timeout converts TimeoutSeconds into a time.Duration.
func (p PerplexityConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds * float64(time.Second))
}

// AuthConfig holds the shared secret clients send as "key" on the
// protected routes. Empty means the protected routes are unusable.
type AuthConfig struct {
	ClientIdentKey string `koanf:"client_ident_key"`
}

// envKeys maps the environment variables we honor to koanf key paths.
// Anything not listed here is ignored.
var envKeys = map[string]string{
	"PORT":                    "server.port",
	"PERPLEXITY_API_KEY":      "perplexity.api_key",
	"PERPLEXITY_API_URL":      "perplexity.api_url",
	"PERPLEXITY_SEARCH_URL":   "perplexity.search_url",
	"PERPLEXITY_MODEL":        "perplexity.model",
	"REQUEST_TIMEOUT_SECONDS": "perplexity.timeout_seconds",
	"CLIENT_IDENT_KEY":        "auth.client_ident_key",
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * DefaultTimeoutSeconds * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Perplexity: PerplexityConfig{
			APIURL:         DefaultAPIURL,
			SearchURL:      DefaultSearchURL,
			Model:          DefaultModel,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
	}
}

// Load builds a Config from defaults, an optional YAML file at path, and
// the process environment (after loading .env if one exists). Later
// sources win. A missing YAML file is not an error; an empty path skips it.
func Load(path string) (*Config, error) {
	// Load .env file into the process environment (ignored if not present).
	_ = godotenv.Load()

	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("checking config file: %w", err)
		}
	}

	// An empty prefix walks the whole environment; the callback keeps
	// only the variables in envKeys. Returning "" tells koanf to skip it.
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	// Unmarshal on top of the defaults: keys that no source set keep
	// their default value.
	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.normalize()

	return &cfg, nil
}

// normalize repairs values that decode cleanly but make no sense. A
// variable set to an empty string (REQUEST_TIMEOUT_SECONDS= in .env, say)
// decodes to 0, which would mean an unbounded upstream call or a random
// listen port, so those fall back to the defaults.
func (c *Config) normalize() {
	if c.Perplexity.TimeoutSeconds <= 0 {
		c.Perplexity.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Server.Port <= 0 {
		c.Server.Port = DefaultPort
	}

	// The write timeout must outlast the upstream timeout, otherwise the
	// connection is cut before the handler can answer.
	if floor := c.Perplexity.Timeout() + writeHeadroom; c.Server.WriteTimeout < floor {
		c.Server.WriteTimeout = floor
	}
}
