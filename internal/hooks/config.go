package hooks

import (
	"fmt"
	"strings"
)

// Config holds registrar configuration.
type Config struct {
	// Namespace is the prefix applied by the root registrar. Services
	// normally derive their own view with Namespace instead.
	Namespace string `koanf:"namespace" json:"namespace"`

	// Debug turns malformed directive usage into template errors.
	Debug bool `koanf:"debug" json:"debug"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Namespace: "",
		Debug:     false,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// A colon would be read as the mode separator by the hook directive.
	if strings.Contains(c.Namespace, ":") {
		return fmt.Errorf("hooks namespace must not contain ':', got %q", c.Namespace)
	}
	if strings.ContainsAny(strings.Trim(c.Namespace, namespaceCutset), " \t\n\r") {
		return fmt.Errorf("hooks namespace must not contain whitespace, got %q", c.Namespace)
	}
	return nil
}
