package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"ecourts-casestatus/internal/ecourts"
	"ecourts-casestatus/lib/configutil"
	configlibsql "ecourts-casestatus/lib/configutil/libsql"
)

const DEFAULT_CONFIG_PATH = "config.json5"

type Config struct {
	Port           int                 `json:"port"`
	Database       configlibsql.Struct `json:"database"`
	AllowedOrigins []string            `json:"allowed_origins"`
	Ecourts        ecourts.Config      `json:"ecourts"`
}

func defaultConfig() Config {
	return Config{
		Port:     8000,
		Database: configlibsql.Struct{File: ".dev/casestatus.db"},
		Ecourts:  ecourts.DefaultConfig(),
	}
}

// LoadConfig reads config.json5 (or the file named by CASESTATUS_CONFIG) together with its
// .local override. A missing config file is not an error, the defaults are used instead.
// PORT overrides the configured port.
func LoadConfig() (Config, error) {
	path := os.Getenv("CASESTATUS_CONFIG")
	if path == "" {
		path = DEFAULT_CONFIG_PATH
	}

	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err = configutil.WithDefaults(cfg, defaultConfig())
	if err != nil {
		return Config{}, err
	}

	if port := os.Getenv("PORT"); port != "" {
		parsed, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Port = parsed
	}
	return cfg, nil
}
