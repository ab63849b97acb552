package config

import (
	"encoding/json"
	"os"
)

// Config holds runtime configuration for capture and the pixel watcher.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug bool `json:"debug"`

	// Capture parameters
	AdapterIndex     int `json:"adapter_index"`
	OutputIndex      int `json:"output_index"`
	AcquireTimeoutMs int `json:"acquire_timeout_ms"`

	// Pixel watcher: region of interest and target color. A zero-size
	// region means the full frame.
	WatchX         int   `json:"watch_x"`
	WatchY         int   `json:"watch_y"`
	WatchW         int   `json:"watch_w"`
	WatchH         int   `json:"watch_h"`
	WatchR         uint8 `json:"watch_r"`
	WatchG         uint8 `json:"watch_g"`
	WatchB         uint8 `json:"watch_b"`
	WatchTolerance int   `json:"watch_tolerance"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:            false,
		AdapterIndex:     0,
		OutputIndex:      0,
		AcquireTimeoutMs: 500,
		WatchR:           0,
		WatchG:           255,
		WatchB:           0,
		WatchTolerance:   10,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	if c.AdapterIndex < 0 {
		c.AdapterIndex = 0
	}
	if c.OutputIndex < 0 {
		c.OutputIndex = 0
	}
	if c.AcquireTimeoutMs <= 0 {
		c.AcquireTimeoutMs = 500
	}
	if c.WatchX < 0 {
		c.WatchX = 0
	}
	if c.WatchY < 0 {
		c.WatchY = 0
	}
	if c.WatchW < 0 {
		c.WatchW = 0
	}
	if c.WatchH < 0 {
		c.WatchH = 0
	}
	if c.WatchTolerance < 0 {
		c.WatchTolerance = 0
	}
	if c.WatchTolerance > 255 {
		c.WatchTolerance = 255
	}
	return nil
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return cfg, err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
