// Package config provides configuration loading for rooty.
//
// Configuration comes from a YAML file, a project .env file and the process
// environment, in increasing order of precedence. See LoadWithFile.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/fyrsmithlabs/rooty/internal/abort"
	"github.com/fyrsmithlabs/rooty/internal/acf"
	"github.com/fyrsmithlabs/rooty/internal/hooks"
	"github.com/fyrsmithlabs/rooty/internal/platform"
	"github.com/fyrsmithlabs/rooty/internal/services"
)

// EnvProduction is the APP_ENV value that selects production behavior.
const EnvProduction = "production"

// Config holds the complete rooty configuration.
type Config struct {
	App           AppConfig           `koanf:"app"`
	Server        ServerConfig        `koanf:"server"`
	Observability ObservabilityConfig `koanf:"observability"`
	Hooks         hooks.Config        `koanf:"hooks"`
	Abort         AbortConfig         `koanf:"abort"`
	ACF           ACFConfig           `koanf:"acf"`

	// Services overrides the stock service map when non-empty.
	Services []services.Entry `koanf:"services"`
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	Name    string `koanf:"name"`
	Env     string `koanf:"env"`
	Debug   bool   `koanf:"debug"`
	URL     string `koanf:"url"`
	Root    string `koanf:"root"`
	Storage string `koanf:"storage"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `koanf:"http_port"`
	Host            string        `koanf:"http_host"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ObservabilityConfig holds logging and OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`
	Endpoint        string `koanf:"endpoint"`
	Protocol        string `koanf:"protocol"`
	Insecure        bool   `koanf:"insecure"`
	LogLevel        string `koanf:"log_level"`
	LogFormat       string `koanf:"log_format"`
}

// AbortConfig selects the abort manager.
type AbortConfig struct {
	Manager string `koanf:"manager"`
}

// ACFConfig is the acf section: the raw settings plus option pages, field
// group files and the asset layout.
type ACFConfig struct {
	acf.Input `koanf:",squash"`

	OptionPages []map[string]any `koanf:"option_pages"`
	FieldGroups []string         `koanf:"field_groups"`
	Assets      acf.Assets       `koanf:"assets"`
}

// Production reports whether the application runs in production.
func (c *Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.App.Env), EnvProduction)
}

// ServiceMap returns the configured service map, or nil to select the
// stock map.
func (c *Config) ServiceMap() (*services.Map, error) {
	if len(c.Services) == 0 {
		return nil, nil
	}
	return services.NewMap(c.Services...)
}

// ACFSettings normalizes the acf section against the application paths.
func (c *Config) ACFSettings() acf.Settings {
	return acf.NormalizeSettings(c.ACF.Input, acf.Base{
		Root:      c.App.Root,
		Storage:   c.App.Storage,
		AssetsURL: c.ACF.Assets.URL(c.App.URL),
		Debug:     c.App.Debug,
	})
}

// ACFProviderConfig builds the ACF provider configuration.
func (c *Config) ACFProviderConfig() acf.Config {
	pages := make([]platform.OptionsPage, 0, len(c.ACF.OptionPages))
	for _, p := range c.ACF.OptionPages {
		pages = append(pages, platform.OptionsPage(p))
	}
	groups := make([]string, 0, len(c.ACF.FieldGroups))
	for _, g := range c.ACF.FieldGroups {
		groups = append(groups, absPath(c.App.Root, g))
	}
	return acf.Config{
		Settings:    c.ACFSettings(),
		OptionPages: pages,
		FieldGroups: groups,
		Assets:      c.ACF.Assets,
		Root:        c.App.Root,
		Production:  c.Production(),
	}
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout is not positive
//   - Service name is empty (when telemetry is enabled)
//   - The application URL is not an http(s) URL
//   - The hooks namespace or the abort manager is invalid
//   - The service map has blank or duplicate names
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}
	switch c.Observability.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be 'json' or 'console', got %q", c.Observability.LogFormat)
	}

	if c.App.URL != "" {
		u, err := url.Parse(c.App.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid app url %q (must be http or https)", c.App.URL)
		}
	}

	if err := c.Hooks.Validate(); err != nil {
		return err
	}

	if !validManager(c.Abort.Manager) {
		return fmt.Errorf("%w: expected one of [%s] under abort.manager, got %q",
			abort.ErrUnknownManager, strings.Join(abort.Names(), ", "), c.Abort.Manager)
	}

	if _, err := c.ServiceMap(); err != nil {
		return err
	}
	return nil
}

func validManager(name string) bool {
	for _, n := range abort.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func absPath(root, p string) string {
	if p == "" || filepath.IsAbs(p) || root == "" {
		return p
	}
	return filepath.Join(root, p)
}
