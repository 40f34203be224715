package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	CatalogPath string   `toml:"catalog"`
	Source      string   `toml:"source"`
	UseCases    []string `toml:"use_cases"`
	Class       string   `toml:"class"`
	Workers     int      `toml:"workers"`
	InitTimeout string   `toml:"init_timeout"`
	Watch       *bool    `toml:"watch"`
	Once        *bool    `toml:"once"`
	LogLevel    string   `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.lifecoord/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".lifecoord", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map). A relative
// catalog path is resolved against the config file's directory.
func ApplyFileConfig(cfg *Config, fc FileConfig, path string, changed map[string]bool) error {
	s := newConfigSetter(changed)

	catalogPath := fc.CatalogPath
	if catalogPath != "" && !filepath.IsAbs(catalogPath) && path != "" {
		catalogPath = filepath.Join(filepath.Dir(path), catalogPath)
	}
	s.setString("catalog", catalogPath, &cfg.CatalogPath)
	s.setString("source", fc.Source, &cfg.Source)
	s.setString("class", fc.Class, &cfg.Class)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setStrings("use-case", fc.UseCases, &cfg.UseCases)
	s.setInt("workers", fc.Workers, &cfg.Workers)

	if err := s.setDuration("init-timeout", fc.InitTimeout, &cfg.InitTimeout); err != nil {
		return err
	}

	s.setBool("watch", fc.Watch, &cfg.Watch)
	s.setBool("once", fc.Once, &cfg.Once)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
