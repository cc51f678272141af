package manifest

import (
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the top-level manifest.
type Config struct {
	Bearer Bearer  `toml:"bearer"`
	Routes []Route `toml:"route"`
}

// Load reads and validates the manifest at path.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes and validates manifest contents.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := toml.Unmarshal(b, &cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Config{}, fmt.Errorf("manifest: line %d column %d: %w", row, col, err)
		}
		return Config{}, fmt.Errorf("manifest: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the bearer section and normalizes every route in place.
func (c *Config) Validate() error {
	if err := c.Bearer.validate(); err != nil {
		return fmt.Errorf("bearer: %w", err)
	}
	if len(c.Routes) == 0 {
		return errors.New("no routes defined")
	}
	return c.validateRoutes()
}
