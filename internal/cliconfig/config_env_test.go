package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"LIFECOORD_CATALOG":      "/env/catalog.toml",
				"LIFECOORD_SOURCE":       "env-source",
				"LIFECOORD_USE_CASES":    "preview, capture:front,,",
				"LIFECOORD_CLASS":        "back",
				"LIFECOORD_WORKERS":      "3",
				"LIFECOORD_INIT_TIMEOUT": "1m",
				"LIFECOORD_ONCE":         "1",
				"LIFECOORD_LOG_LEVEL":    "warn",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				CatalogPath: "/env/catalog.toml",
				Source:      "env-source",
				UseCases:    []string{"preview", "capture:front"},
				Class:       "back",
				Workers:     3,
				InitTimeout: time.Minute,
				Once:        true,
				LogLevel:    "warn",
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"LIFECOORD_CATALOG": "/env/catalog.toml",
				"LIFECOORD_SOURCE":  "env-source",
			},
			changed: map[string]bool{"catalog": true},
			initial: Config{
				CatalogPath: "/flag/catalog.toml",
			},
			expected: Config{
				CatalogPath: "/flag/catalog.toml",
				Source:      "env-source",
			},
			wantErr: false,
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"LIFECOORD_INIT_TIMEOUT": "not-a-duration",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"LIFECOORD_WORKERS": "many",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "handles bool 'false' as false",
			envVars: map[string]string{
				"LIFECOORD_WATCH": "false",
			},
			changed:  map[string]bool{},
			initial:  Config{Watch: true},
			expected: Config{Watch: false},
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}
			if !tt.wantErr {
				checkConfig(t, cfg, tt.expected)
			}
		})
	}
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	trueVal := true

	fileConf := FileConfig{
		CatalogPath: "/file/catalog.toml",
		Source:      "file-source",
		Class:       "front",
		Once:        &trueVal,
	}

	t.Setenv("LIFECOORD_CATALOG", "/env/catalog.toml")
	t.Setenv("LIFECOORD_SOURCE", "env-source")
	t.Setenv("LIFECOORD_WORKERS", "2")

	changed := map[string]bool{
		"catalog": true,
	}

	cfg := Config{
		CatalogPath: "/cli/catalog.toml",
	}

	if err := ApplyFileConfig(&cfg, fileConf, "", changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	if cfg.CatalogPath != "/cli/catalog.toml" {
		t.Errorf("CatalogPath = %v, want /cli/catalog.toml (CLI should win)", cfg.CatalogPath)
	}
	if cfg.Source != "env-source" {
		t.Errorf("Source = %v, want env-source (env should override file)", cfg.Source)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %v, want 2 (env should set)", cfg.Workers)
	}
	if cfg.Class != "front" {
		t.Errorf("Class = %v, want front (file should set)", cfg.Class)
	}
	if !cfg.Once {
		t.Errorf("Once = %v, want true (file should set)", cfg.Once)
	}
}
