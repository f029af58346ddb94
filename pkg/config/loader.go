package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Load parses environment variables into the provided struct.
// The struct should use `env` tags to define mappings.
//
// Example:
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadDotenv reads the given dotenv files (".env" when none are given) into
// the process environment and then calls Load. Variables already set in the
// environment win over file values. Missing files are skipped.
func LoadDotenv(cfg any, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load dotenv %s: %w", f, err)
		}
	}
	return Load(cfg)
}
