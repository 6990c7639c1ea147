package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// DotEnvPath is the file Load reads before parsing the environment.
const DotEnvPath = ".env"

// DataDir returns the relaybot data directory, creating it if needed.
func DataDir() string {
	dir := filepath.Join(homeDir(), ".relaybot")
	os.MkdirAll(dir, 0o755)
	return dir
}

// Load reads configuration from the environment after applying ./.env.
func Load() (*Config, error) {
	return LoadFrom(DotEnvPath)
}

// LoadFrom applies the dotenv file at path (if it exists), parses the
// environment and validates the result. Variables already present in the
// environment win over the file. The parsed config is returned even when
// validation fails so callers can report on it.
func LoadFrom(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, cfg.Validate()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}
