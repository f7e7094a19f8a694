// FILE: trafficview/src/internal/config/validation_test.go
package config

import (
	"errors"
	"testing"
	"time"

	"trafficview/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func azureConfig() *Config {
	cfg := defaults()
	cfg.Storage.Account = "acct"
	cfg.Storage.Key = "c2VjcmV0"
	cfg.Storage.Container = "logs"
	return cfg
}

func TestValidateConfig_Defaults(t *testing.T) {
	require.NoError(t, validateConfig(defaults()))
}

func TestValidateConfig_Rejects(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"UnknownBackend", func(c *Config) { c.Storage.Type = "s3" }},
		{"UnknownRange", func(c *Config) { c.Fetch.Range = "last_week" }},
		{"NegativeCap", func(c *Config) { c.Fetch.MaxObjects = -1 }},
		{"NegativeKeep", func(c *Config) { c.Snapshot.Keep = -2 }},
		{"BadPort", func(c *Config) { c.Server.Port = 70000 }},
		{"BadView", func(c *Config) { c.View.DefaultView = "wide" }},
		{"BadLogLevel", func(c *Config) { c.Logging.Level = "loud" }},
		{"BadConsoleTarget", func(c *Config) { c.Logging.Console.Target = "tty" }},
		{"FileOutputNoSection", func(c *Config) { c.Logging.Output = "file"; c.Logging.File = nil }},
		{"FileOutputNoName", func(c *Config) { c.Logging.Output = "both"; c.Logging.File.Name = "" }},
		{"NegativeRetention", func(c *Config) { c.Logging.Output = "file"; c.Logging.File.RetentionHours = -1 }},
		{"TLSWithoutCert", func(c *Config) { c.Server.TLS.Enabled = true }},
		{"BasicAuthNoUsers", func(c *Config) {
			c.Server.Auth = &AuthConfig{Type: "basic", BasicAuth: &BasicAuthConfig{}}
		}},
		{"RateLimitZeroRate", func(c *Config) {
			c.Server.RateLimit = &RateLimitConfig{Enabled: true}
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaults()
			tc.mutate(cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}
}

func TestValidateSource(t *testing.T) {
	t.Run("AzureComplete", func(t *testing.T) {
		require.NoError(t, ValidateSource(azureConfig()))
	})

	t.Run("ConnectionStringReplacesKey", func(t *testing.T) {
		cfg := azureConfig()
		cfg.Storage.Account = ""
		cfg.Storage.Key = ""
		cfg.Storage.ConnectionString = "UseDevelopmentStorage=true"
		require.NoError(t, ValidateSource(cfg))
	})

	testCases := []struct {
		name  string
		field string
		mut   func(c *Config)
	}{
		{"MissingContainer", "storage.container", func(c *Config) { c.Storage.Container = "" }},
		{"MissingAccount", "storage.account", func(c *Config) { c.Storage.Account = "" }},
		{"MissingKey", "storage.key", func(c *Config) { c.Storage.Key = " " }},
		{"DirectoryWithoutPath", "storage.directory", func(c *Config) { c.Storage.Type = "directory" }},
		{"CustomWithoutBounds", "fetch.range", func(c *Config) { c.Fetch.Range = "custom" }},
		{"CustomBadStart", "fetch.start", func(c *Config) {
			c.Fetch.Range = "custom"
			c.Fetch.Start = "yesterday"
		}},
		{"CustomReversed", "fetch.end", func(c *Config) {
			c.Fetch.Range = "custom"
			c.Fetch.Start = "2025-09-02T00:00:00Z"
			c.Fetch.End = "2025-09-01T00:00:00Z"
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := azureConfig()
			tc.mut(cfg)
			err := ValidateSource(cfg)
			require.Error(t, err)

			var cfgErr *core.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestFetchConfig_FetchRange(t *testing.T) {
	f := FetchConfig{Range: "custom", Start: "2025-09-01T00:00:00Z", End: "2025-09-02"}
	r, err := f.FetchRange()
	require.NoError(t, err)
	assert.Equal(t, core.RangeCustom, r.Kind)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC), r.End)

	r, err = FetchConfig{Range: "last_day", Start: "ignored"}.FetchRange()
	require.NoError(t, err)
	assert.Equal(t, core.RangeLastDay, r.Kind)
	assert.True(t, r.Start.IsZero())
}
