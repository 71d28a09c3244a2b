package config

import "path/filepath"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(".phasor", "history.db"),
		},
		Demo: DemoConfig{
			TickRate:  30,
			Particles: 64,
		},
	}
}
