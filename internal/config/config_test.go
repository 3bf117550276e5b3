package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TimeSteps != 24 {
		t.Errorf("expected 24 time steps, got %d", cfg.TimeSteps)
	}
	if cfg.FramesPerSegment <= 0 {
		t.Error("frames per segment should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if len(cfg.Levels) != 5 {
		t.Errorf("expected 5 levels, got %d", len(cfg.Levels))
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "earther.yaml")
	data := []byte(`
provider_uri: http://localhost:9000
frames_per_segment: 8
fetch_timeout: 5s
variables:
  - model: cam
    var_name: TS
    type: flat
    units: K
    display: increasing
    color: "0xff0000"
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ProviderURI != "http://localhost:9000" {
		t.Errorf("unexpected provider uri %q", cfg.ProviderURI)
	}
	if cfg.FramesPerSegment != 8 {
		t.Errorf("expected 8 frames per segment, got %d", cfg.FramesPerSegment)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.FetchTimeout)
	}
	if cfg.TimeSteps != DefaultTimeSteps {
		t.Errorf("time steps should keep default, got %d", cfg.TimeSteps)
	}

	v, ok := cfg.FindVariable("cam/TS")
	if !ok {
		t.Fatal("expected cam/TS in catalog")
	}
	if v.Display != "increasing" {
		t.Errorf("config entry should override preset, got display %q", v.Display)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("frames_per_segment: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.FPS = 12
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.FPS != 12 {
		t.Errorf("expected fps 12, got %d", loaded.FPS)
	}
}

func TestGetVariable(t *testing.T) {
	v := GetVariable("cam", "CLOUD")
	if v == nil {
		t.Fatal("expected preset, got nil")
	}
	if v.IsFlat() {
		t.Error("CLOUD should be a 3d variable")
	}
	if GetVariable("cam", "nonexistent") != nil {
		t.Error("expected nil for unknown variable")
	}
}

func TestListVariables(t *testing.T) {
	names := ListVariables()
	if len(names) != len(Variables) {
		t.Errorf("expected %d names, got %d", len(Variables), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("names not sorted: %v", names)
			break
		}
	}
}
