package main

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config tunes the VM's GC without changing its defaults when no
// .crow.toml is present. All three keys map straight onto vm.Options;
// a growth factor at or below 1 keeps pkg/vm's default doubling.
type Config struct {
	GC struct {
		InitialHeapBytes int64   `toml:"initial_heap_bytes"`
		GCGrowthFactor   float64 `toml:"growth_factor"`
		Stress           bool    `toml:"stress"`
	} `toml:"gc"`
}

// loadConfig reads path if it exists; a missing file is not an error
// (the zero Config, all defaults, is returned instead).
func loadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
