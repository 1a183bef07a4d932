// Package config loads the YAML file that selects a PWM backend and,
// optionally, overrides the compiled-in pin table.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	BackendSysctl = "sysctl"
	BackendTree   = "tree"
	BackendGPIO   = "gpio"
)

const (
	defaultChannels = 4
	defaultGPIOChip = "gpiochip0"
)

type Config struct {
	Backend  string      `yaml:"backend"`
	Channels int         `yaml:"channels"`
	TreeRoot string      `yaml:"tree_root"`
	GPIOChip string      `yaml:"gpio_chip"`
	Pins     []PinConfig `yaml:"pins"`
}

type PinConfig struct {
	Pin     int    `yaml:"pin"`
	Channel int    `yaml:"channel"`
	Mode    string `yaml:"mode"`
	Period  string `yaml:"period"`
	Ratio   string `yaml:"ratio"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes and validates a YAML document, applying defaults.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	switch cfg.Backend {
	case "":
		cfg.Backend = BackendSysctl
	case BackendSysctl, BackendTree, BackendGPIO:
	default:
		return Config{}, fmt.Errorf("backend must be one of 'sysctl', 'tree', 'gpio' (got %q)", cfg.Backend)
	}

	if cfg.Channels == 0 {
		cfg.Channels = defaultChannels
	}
	if cfg.Channels < 0 {
		return Config{}, fmt.Errorf("channels must be > 0")
	}

	if cfg.Backend == BackendTree && cfg.TreeRoot == "" {
		return Config{}, fmt.Errorf("tree_root is required when backend is 'tree'")
	}
	if cfg.Backend == BackendGPIO && cfg.GPIOChip == "" {
		cfg.GPIOChip = defaultGPIOChip
	}

	seen := make(map[int]bool, len(cfg.Pins))
	for i, p := range cfg.Pins {
		if seen[p.Pin] {
			return Config{}, fmt.Errorf("pins[%d].pin %d is listed more than once", i, p.Pin)
		}
		seen[p.Pin] = true
		if p.Channel < 0 || p.Channel >= cfg.Channels {
			return Config{}, fmt.Errorf("pins[%d].channel %d out of range [0, %d)", i, p.Channel, cfg.Channels)
		}
		if p.Mode == "" || p.Period == "" || p.Ratio == "" {
			return Config{}, fmt.Errorf("pins[%d] requires mode, period and ratio", i)
		}
	}

	return cfg, nil
}
