package cliconfig

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Source != DefaultSource {
		t.Errorf("Source = %v, want %v", cfg.Source, DefaultSource)
	}
	if cfg.InitTimeout != 10*time.Second {
		t.Errorf("InitTimeout = %v, want 10s", cfg.InitTimeout)
	}
	if !cfg.Watch {
		t.Error("Watch = false, want true")
	}
	if len(cfg.UseCases) != 1 || cfg.UseCases[0] != "preview" {
		t.Errorf("UseCases = %v, want [preview]", cfg.UseCases)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name       string
		config     Config
		wantErr    bool
		wantSource string
	}{
		{
			name: "valid minimal config",
			config: Config{
				CatalogPath: "/etc/lifecoord/catalog.toml",
				Source:      "app",
				InitTimeout: time.Second,
			},
			wantErr:    false,
			wantSource: "app",
		},
		{
			name: "missing catalog",
			config: Config{
				InitTimeout: time.Second,
			},
			wantErr: true,
		},
		{
			name: "source defaults when omitted",
			config: Config{
				CatalogPath: "catalog.yaml",
				InitTimeout: time.Second,
			},
			wantErr:    false,
			wantSource: DefaultSource,
		},
		{
			name: "negative workers",
			config: Config{
				CatalogPath: "catalog.toml",
				Workers:     -1,
				InitTimeout: time.Second,
			},
			wantErr: true,
		},
		{
			name: "invalid init timeout",
			config: Config{
				CatalogPath: "catalog.toml",
				InitTimeout: 0,
			},
			wantErr: true,
		},
		{
			name: "use case without kind",
			config: Config{
				CatalogPath: "catalog.toml",
				InitTimeout: time.Second,
				UseCases:    []string{":front"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.wantSource != "" && tt.config.Source != tt.wantSource {
				t.Errorf("Source = %v, want %v", tt.config.Source, tt.wantSource)
			}
		})
	}
}

func TestConfig_ParseUseCases(t *testing.T) {
	cfg := Config{
		UseCases: []string{"preview", "capture:front", " ", "analysis:"},
		Class:    "back",
	}
	specs, err := cfg.ParseUseCases()
	if err != nil {
		t.Fatalf("ParseUseCases failed: %v", err)
	}

	want := []UseCaseSpec{
		{Kind: "preview", Class: "back"},
		{Kind: "capture", Class: "front"},
		{Kind: "analysis", Class: "back"},
	}
	if len(specs) != len(want) {
		t.Fatalf("len(specs) = %d, want %d", len(specs), len(want))
	}
	for i := range want {
		if specs[i] != want[i] {
			t.Errorf("specs[%d] = %+v, want %+v", i, specs[i], want[i])
		}
	}
}
