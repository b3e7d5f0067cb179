package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServiceConfig is the top-level brewsim.yaml document.
type ServiceConfig struct {
	Version int `yaml:"version"`
	Service struct {
		Name     string `yaml:"name"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Backend struct {
		Address string        `yaml:"address"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"backend"`
	Storage struct {
		Driver     string `yaml:"driver"` // postgres, sqlite or none
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	MQTT struct {
		Enabled     bool   `yaml:"enabled"`
		URL         string `yaml:"url"`
		TopicPrefix string `yaml:"topic_prefix"`
	} `yaml:"mqtt"`
	Results struct {
		Spacing *float64 `yaml:"spacing"`
	} `yaml:"results"`
	Simulations map[string]SimulationConfig `yaml:"simulations"`
}

// SimulationConfig holds per-variant settings injected into level scenes.
type SimulationConfig struct {
	GrindSetting string `yaml:"grind_setting"`
}

// HTTPPort returns the configured API port, defaulting to 8080 if not set.
func (c *ServiceConfig) HTTPPort() int {
	if c.Service.HTTPPort == 0 {
		return 8080
	}
	return c.Service.HTTPPort
}

// ServiceName returns the configured service name, defaulting to "brewsim".
func (c *ServiceConfig) ServiceName() string {
	if c.Service.Name == "" {
		return "brewsim"
	}
	return c.Service.Name
}

// BackendAddress returns the score backend base URL.
// BREWSIM_BACKEND_URL overrides the file value.
func (c *ServiceConfig) BackendAddress() string {
	if v := os.Getenv("BREWSIM_BACKEND_URL"); v != "" {
		return v
	}
	return c.Backend.Address
}

// SubmitTimeout returns the backend request timeout, defaulting to 10s.
func (c *ServiceConfig) SubmitTimeout() time.Duration {
	if c.Backend.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.Backend.Timeout
}

// StorageDriver returns the record storage driver, defaulting to "none".
func (c *ServiceConfig) StorageDriver() string {
	if c.Storage.Driver == "" {
		return "none"
	}
	return c.Storage.Driver
}

// SQLitePath returns the sqlite archive path, defaulting to "brewsim.db".
func (c *ServiceConfig) SQLitePath() string {
	if c.Storage.SQLitePath == "" {
		return "brewsim.db"
	}
	return c.Storage.SQLitePath
}

// TopicPrefix returns the MQTT topic prefix, defaulting to "brewsim".
func (c *ServiceConfig) TopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return "brewsim"
	}
	return c.MQTT.TopicPrefix
}

// ResultSpacing returns the vertical spacing between result lines,
// defaulting to 0.5 when unset. Zero stacks every line.
func (c *ServiceConfig) ResultSpacing() float64 {
	if c.Results.Spacing == nil {
		return 0.5
	}
	return *c.Results.Spacing
}

// GrindSetting returns the configured grind target for a simulation kind,
// or fallback when the kind has no entry.
func (c *ServiceConfig) GrindSetting(kind, fallback string) string {
	if sc, ok := c.Simulations[kind]; ok && sc.GrindSetting != "" {
		return sc.GrindSetting
	}
	return fallback
}

func LoadServiceConfig(path string) (*ServiceConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseServiceConfig(b)
}

// ParseServiceConfig decodes and validates a brewsim.yaml document.
func ParseServiceConfig(b []byte) (*ServiceConfig, error) {
	var cfg ServiceConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported brewsim.yaml version: %d", cfg.Version)
	}

	switch cfg.StorageDriver() {
	case "postgres", "sqlite", "none":
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}

	if cfg.Results.Spacing != nil && *cfg.Results.Spacing < 0 {
		return nil, fmt.Errorf("results.spacing must not be negative: %v", *cfg.Results.Spacing)
	}

	return &cfg, nil
}
