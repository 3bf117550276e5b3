package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultProviderURI      = "https://4vesdtyv82.execute-api.us-west-2.amazonaws.com/dev"
	DefaultRemap            = "C40962"
	DefaultTimeSteps        = 24
	DefaultFramesPerSegment = 20
	DefaultFetchConcurrency = 4
	DefaultFetchTimeout     = 60 * time.Second
	DefaultFPS              = 30
	DefaultGridPath         = "data/geodesic_data.json"
	DefaultListenAddr       = ":8080"
)

// Levels are the vertical levels shown for a 3-D variable, one shell each.
var Levels = []int{0, 3, 6, 9, 12}

type Config struct {
	ProviderURI      string         `yaml:"provider_uri"`
	Remap            string         `yaml:"remap"`
	GridPath         string         `yaml:"grid_path"`
	TimeSteps        int            `yaml:"time_steps"`
	FramesPerSegment int            `yaml:"frames_per_segment"`
	FetchConcurrency int            `yaml:"fetch_concurrency"`
	FetchTimeout     time.Duration  `yaml:"fetch_timeout"`
	FPS              int            `yaml:"fps"`
	Listen           string         `yaml:"listen"`
	Levels           []int          `yaml:"levels"`
	Variables        []VariableDesc `yaml:"variables"`
}

// VariableDesc is a catalog entry describing how a variable is displayed.
type VariableDesc struct {
	Model       string `yaml:"model" json:"model"`
	VarName     string `yaml:"var_name" json:"varName"`
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description" json:"description"`
	Units       string `yaml:"units" json:"units"`
	Display     string `yaml:"display" json:"display"`
	Color       string `yaml:"color" json:"color"`
	Height      string `yaml:"height" json:"height"`
}

// IsFlat reports whether the variable has no vertical levels.
func (v VariableDesc) IsFlat() bool { return v.Type != "3d" }

func (v VariableDesc) Key() string { return v.Model + "/" + v.VarName }

func DefaultConfig() *Config {
	return &Config{
		ProviderURI:      DefaultProviderURI,
		Remap:            DefaultRemap,
		GridPath:         DefaultGridPath,
		TimeSteps:        DefaultTimeSteps,
		FramesPerSegment: DefaultFramesPerSegment,
		FetchConcurrency: DefaultFetchConcurrency,
		FetchTimeout:     DefaultFetchTimeout,
		FPS:              DefaultFPS,
		Listen:           DefaultListenAddr,
		Levels:           append([]int(nil), Levels...),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.TimeSteps <= 0 {
		return fmt.Errorf("time_steps must be positive, got %d", c.TimeSteps)
	}
	if c.FramesPerSegment <= 0 {
		return fmt.Errorf("frames_per_segment must be positive, got %d", c.FramesPerSegment)
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("fetch_concurrency must be positive, got %d", c.FetchConcurrency)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	return nil
}

// Catalog returns the configured variables followed by the built-in ones
// that the config does not override.
func (c *Config) Catalog() []VariableDesc {
	seen := make(map[string]bool, len(c.Variables))
	out := make([]VariableDesc, 0, len(c.Variables)+len(Variables))
	for _, v := range c.Variables {
		seen[v.Key()] = true
		out = append(out, v)
	}
	for _, v := range Variables {
		if !seen[v.Key()] {
			out = append(out, v)
		}
	}
	return out
}

// FindVariable looks up "model/var" in the catalog.
func (c *Config) FindVariable(key string) (VariableDesc, bool) {
	for _, v := range c.Catalog() {
		if v.Key() == key {
			return v, true
		}
	}
	return VariableDesc{}, false
}
