package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (LIFECOORD_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("catalog", os.Getenv("LIFECOORD_CATALOG"), &cfg.CatalogPath)
	s.setString("source", os.Getenv("LIFECOORD_SOURCE"), &cfg.Source)
	s.setString("class", os.Getenv("LIFECOORD_CLASS"), &cfg.Class)
	s.setString("log-level", os.Getenv("LIFECOORD_LOG_LEVEL"), &cfg.LogLevel)
	s.setListFromString("use-case", os.Getenv("LIFECOORD_USE_CASES"), &cfg.UseCases)

	if err := s.setIntFromString("workers", os.Getenv("LIFECOORD_WORKERS"), &cfg.Workers); err != nil {
		return err
	}
	if err := s.setDuration("init-timeout", os.Getenv("LIFECOORD_INIT_TIMEOUT"), &cfg.InitTimeout); err != nil {
		return err
	}

	s.setBoolFromString("watch", os.Getenv("LIFECOORD_WATCH"), &cfg.Watch)
	s.setBoolFromString("once", os.Getenv("LIFECOORD_ONCE"), &cfg.Once)

	return nil
}
