package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/rooty/internal/abort"
	"github.com/fyrsmithlabs/rooty/internal/acf"
	"github.com/fyrsmithlabs/rooty/internal/services"
)

func validConfig() *Config {
	cfg := &Config{App: AppConfig{Root: "/srv/site"}}
	applyDefaults(cfg)
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *Config) { c.Server.ShutdownTimeout = 0 },
			wantErr: "shutdown timeout must be positive",
		},
		{
			name: "telemetry without service name",
			mutate: func(c *Config) {
				c.Observability.EnableTelemetry = true
				c.Observability.ServiceName = ""
			},
			wantErr: "service name required",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Observability.LogFormat = "xml" },
			wantErr: "log format",
		},
		{
			name:    "non-http app url",
			mutate:  func(c *Config) { c.App.URL = "file:///etc/passwd" },
			wantErr: "invalid app url",
		},
		{
			name:    "namespace with colon",
			mutate:  func(c *Config) { c.Hooks.Namespace = "a:b" },
			wantErr: "must not contain ':'",
		},
		{
			name:    "unknown abort manager",
			mutate:  func(c *Config) { c.Abort.Manager = "wp_die" },
			wantErr: "under abort.manager",
		},
		{
			name: "duplicate service",
			mutate: func(c *Config) {
				c.Services = []services.Entry{
					{Name: "caps", Class: services.ClassCapabilities},
					{Name: "caps", Class: services.ClassHooks},
				}
			},
			wantErr: "caps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_UnknownAbortManagerIsSentinel(t *testing.T) {
	cfg := validConfig()
	cfg.Abort.Manager = "nope"
	assert.True(t, errors.Is(cfg.Validate(), abort.ErrUnknownManager))
}

func TestConfig_Production(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.Production())

	cfg.App.Env = " Production "
	assert.True(t, cfg.Production())
}

func TestConfig_ServiceMap(t *testing.T) {
	cfg := validConfig()
	m, err := cfg.ServiceMap()
	require.NoError(t, err)
	assert.Nil(t, m, "empty section selects the stock map")

	cfg.Services = []services.Entry{{Name: "caps", Class: services.ClassCapabilities}}
	m, err = cfg.ServiceMap()
	require.NoError(t, err)
	assert.Equal(t, []string{"caps"}, m.Names())
}

func TestConfig_ACFSettings(t *testing.T) {
	cfg := validConfig()
	cfg.App.URL = "https://example.test/"
	cfg.ACF.Assets.Target = acf.TargetBuild

	s := cfg.ACFSettings()
	assert.Equal(t, filepath.Join("/srv/site", acf.DefaultPath), s.Path)
	assert.Equal(t, "https://example.test/build/acf/assets", s.URL)
	assert.Equal(t, filepath.Join("/srv/site", "storage", acf.DefaultSaveJSON), s.SaveJSON)
	assert.Equal(t, []string{s.SaveJSON}, s.LoadJSON)
	assert.False(t, s.ShowAdmin)

	cfg.App.Debug = true
	assert.True(t, cfg.ACFSettings().ShowAdmin, "show_admin follows debug")
}

func TestConfig_ACFProviderConfig(t *testing.T) {
	cfg := validConfig()
	cfg.App.Env = EnvProduction
	cfg.ACF.OptionPages = []map[string]any{
		{"page_title": "Site Settings", "menu_slug": "site-settings"},
		{"page_title": "Footer", "parent_slug": "site-settings"},
	}
	cfg.ACF.FieldGroups = []string{"config/acf/hero.json", "/abs/group.yaml"}

	pc := cfg.ACFProviderConfig()
	require.Len(t, pc.OptionPages, 2)
	assert.Equal(t, "site-settings", pc.OptionPages[0].Slug())
	assert.Equal(t, "site-settings", pc.OptionPages[1].ParentSlug())
	assert.Equal(t, []string{filepath.Join("/srv/site", "config/acf/hero.json"), "/abs/group.yaml"}, pc.FieldGroups)
	assert.Equal(t, "/srv/site", pc.Root)
	assert.True(t, pc.Production)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "rooty", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "http://localhost:9090", cfg.App.URL)
	assert.Equal(t, "rooty", cfg.Observability.ServiceName)
	assert.Equal(t, "console", cfg.Observability.LogFormat)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.Equal(t, "http", cfg.Abort.Manager)
	assert.False(t, cfg.Hooks.Debug)

	prod := &Config{App: AppConfig{Env: EnvProduction, Debug: true}}
	applyDefaults(prod)
	assert.Equal(t, "json", prod.Observability.LogFormat)
	assert.Equal(t, "debug", prod.Observability.LogLevel)
	assert.True(t, prod.Hooks.Debug, "app debug enables directive errors")
}

func TestSecret_Redacts(t *testing.T) {
	s := Secret("hunter2")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "hunter2", s.Value())
	assert.True(t, s.IsSet())

	b, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"[REDACTED]"`, string(b))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration())
	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
