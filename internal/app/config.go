package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"voxelnav/internal/pathing"
)

// Config is the navmon daemon configuration. Every field has a usable
// default; a config file only overrides what it names.
type Config struct {
	Listen string `yaml:"listen" json:"listen"`

	// TickRate is simulation ticks per second.
	TickRate int `yaml:"tickRate" json:"tickRate"`
	// StatusIntervalTicks is how often a status snapshot is broadcast.
	StatusIntervalTicks int `yaml:"statusIntervalTicks" json:"statusIntervalTicks"`

	World   WorldConfig      `yaml:"world" json:"world"`
	Agent   AgentConfig      `yaml:"agent" json:"agent"`
	Pathing pathing.Settings `yaml:"pathing" json:"pathing"`
	Logging LoggingConfig    `yaml:"logging" json:"logging"`
}

// WorldConfig describes the built-in flat test world.
type WorldConfig struct {
	GroundLevel int `yaml:"groundLevel" json:"groundLevel"`
}

// AgentConfig places the simulated agent.
type AgentConfig struct {
	StartX       int `yaml:"startX" json:"startX"`
	StartY       int `yaml:"startY" json:"startY"`
	StartZ       int `yaml:"startZ" json:"startZ"`
	TicksPerMove int `yaml:"ticksPerMove" json:"ticksPerMove"`
}

// LoggingConfig selects sinks and the severity floor.
type LoggingConfig struct {
	Sinks       []string `yaml:"sinks" json:"sinks"`
	MinSeverity string   `yaml:"minSeverity" json:"minSeverity"`
	JSONPath    string   `yaml:"jsonPath" json:"jsonPath"`
}

func DefaultConfig() Config {
	return Config{
		Listen:              ":8080",
		TickRate:            20,
		StatusIntervalTicks: 10,
		World:               WorldConfig{GroundLevel: 63},
		Agent:               AgentConfig{StartY: 64, TicksPerMove: 1},
		Pathing:             pathing.DefaultSettings(),
		Logging: LoggingConfig{
			Sinks:       []string{"console"},
			MinSeverity: "info",
		},
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path returns the
// defaults untouched.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tickRate must be positive, got %d", c.TickRate)
	}
	if c.StatusIntervalTicks <= 0 {
		return fmt.Errorf("statusIntervalTicks must be positive, got %d", c.StatusIntervalTicks)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	return nil
}
