package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/foldview/foldview/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "foldview.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Collapse.Budget != DefaultBudget {
		t.Errorf("budget = %v, want default %v", cfg.Collapse.Budget, DefaultBudget)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("cache backend = %q, want file", cfg.Cache.Backend)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[collapse]
budget = 50000

[server]
addr = ":9090"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Collapse.Budget != 50000 {
		t.Errorf("budget = %v, want 50000", cfg.Collapse.Budget)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q, want :9090", cfg.Server.Addr)
	}
	// Untouched sections keep their defaults.
	if cfg.Collapse.NodeArea != 6000 {
		t.Errorf("node_area = %v, want default 6000", cfg.Collapse.NodeArea)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Malformed", `[collapse` + "\n"},
		{"UnknownBackend", "[cache]\nbackend = \"memcached\"\n"},
		{"NegativeBudget", "[collapse]\nbudget = -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("want INVALID_CONFIG, got %v", err)
			}
		})
	}
}

func TestCostModel(t *testing.T) {
	path := writeConfig(t, `
[collapse]
node_area = 100
collapsed_footprint = 50
padding = 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m := cfg.CostModel()
	if m.NodeArea != 100 || m.CollapsedFootprint != 50 || m.Padding != 10 {
		t.Errorf("cost model = %+v, want 100/50/10", m)
	}
}
