package grid

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML grid configuration using strict parsing. Missing
// keys keep their DefaultConfig values; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open grid config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("YAML syntax error in grid config: %w", err)
	}

	if _, err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
