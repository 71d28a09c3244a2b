package config

// HistoryConfig controls the SQLite frame recorder.
type HistoryConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"` // database file; parent dirs created on open
}

// DemoConfig controls the particle demo driven by the scheduler.
type DemoConfig struct {
	TickRate  int   `json:"tick_rate"`      // frames per second for the main trigger
	Particles int   `json:"particles"`      // particles spawned at startup
	Seed      int64 `json:"seed,omitempty"` // 0 picks a time-based seed
}

// Config is the top-level configuration.
type Config struct {
	LogLevel string        `json:"log_level"` // zerolog level name
	History  HistoryConfig `json:"history"`
	Demo     DemoConfig    `json:"demo"`
}
