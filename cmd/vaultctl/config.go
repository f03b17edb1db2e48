package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vaultkv/server/pkg/facade"
)

// FileConfig is the on-disk shape of a vaultctl config file: facade tuning
// knobs a deployment wants fixed across invocations instead of repeated as
// flags. Durations are parsed by time.ParseDuration ("720h", "30s").
type FileConfig struct {
	DataDirectory          string `yaml:"dataDirectory"`
	NonceTTL               string `yaml:"nonceTTL"`
	RequestFreshnessWindow string `yaml:"requestFreshnessWindow"`
	PurgeSampleDenominator uint32 `yaml:"purgeSampleDenominator"`
}

// loadFacadeConfig reads path if non-empty and overlays it onto a
// facade.Config seeded from the --data-dir flag; an absent path is not an
// error, since every field has a working default.
func loadFacadeConfig(path, dataDir string) (facade.Config, error) {
	cfg := facade.Config{DataDirectory: dataDir}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if fc.DataDirectory != "" {
		cfg.DataDirectory = fc.DataDirectory
	}
	if fc.NonceTTL != "" {
		d, err := time.ParseDuration(fc.NonceTTL)
		if err != nil {
			return cfg, fmt.Errorf("config nonceTTL: %w", err)
		}
		cfg.NonceTTL = d
	}
	if fc.RequestFreshnessWindow != "" {
		d, err := time.ParseDuration(fc.RequestFreshnessWindow)
		if err != nil {
			return cfg, fmt.Errorf("config requestFreshnessWindow: %w", err)
		}
		cfg.RequestFreshnessWindow = d
	}
	if fc.PurgeSampleDenominator != 0 {
		cfg.PurgeSampleRate = fc.PurgeSampleDenominator
	}

	return cfg, nil
}
