package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSource is the binding source used when none is configured.
const DefaultSource = "lifecoord"

// Config holds CLI configuration for lifecoord.
type Config struct {
	CatalogPath string
	Source      string

	// UseCases are "kind" or "kind:class" entries bound at startup.
	UseCases []string
	// Class restricts every binding to one resource class.
	Class string

	Workers     int
	InitTimeout time.Duration

	Watch    bool
	Once     bool
	LogLevel string
}

// UseCaseSpec is a parsed UseCases entry.
type UseCaseSpec struct {
	Kind  string
	Class string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Source:      DefaultSource,
		UseCases:    []string{"preview"},
		InitTimeout: 10 * time.Second,
		Watch:       true,
		LogLevel:    "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.CatalogPath == "" {
		return fmt.Errorf("catalog is required")
	}
	if c.Source == "" {
		c.Source = DefaultSource
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if c.InitTimeout <= 0 {
		return fmt.Errorf("init timeout must be positive")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := c.ParseUseCases(); err != nil {
		return err
	}
	return nil
}

// ParseUseCases splits UseCases into kinds and optional classes. Class, when
// set, applies to entries that name none.
func (c *Config) ParseUseCases() ([]UseCaseSpec, error) {
	specs := make([]UseCaseSpec, 0, len(c.UseCases))
	for _, raw := range c.UseCases {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		kind, class, _ := strings.Cut(raw, ":")
		if kind == "" {
			return nil, fmt.Errorf("use case %q: kind is required", raw)
		}
		if class == "" {
			class = c.Class
		}
		specs = append(specs, UseCaseSpec{Kind: kind, Class: class})
	}
	return specs, nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings replaces a list if the new one is not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setListFromString splits a comma separated environment value.
func (s *configSetter) setListFromString(flag, value string, dst *[]string) {
	if value == "" || s.changed[flag] {
		return
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	s.setStrings(flag, list, dst)
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
