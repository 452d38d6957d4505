// Package config loads and saves this repository's TOML settings file, per
// SPEC_FULL.md §4.9. Same shape and library as the teacher's own
// config.Config: a typed struct with table-per-concern TOML sections, a
// DefaultConfig/Load/LoadFrom/Save/SaveTo API, and a "missing file falls
// back to defaults" load path.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds the settings loaded from a TOML file. cmd/cortexm reads
// Execution.MaxCycles and the Memory section; Execution.EnableTrace and the
// Debugger section are loaded and defaulted, but no code in this repository
// reads them.
type Config struct {
	// Execution settings govern the run loop cmd/cortexm drives.
	Execution struct {
		MaxCycles   uint64 `toml:"max_cycles"`
		EnableTrace bool   `toml:"enable_trace"`
	} `toml:"execution"`

	// Debugger settings for the interactive TUI; the debugger package does
	// not read them.
	Debugger struct {
		HistorySize   int  `toml:"history_size"`
		ShowRegisters bool `toml:"show_registers"`
	} `toml:"debugger"`

	// Memory settings size the flat bus regions the loader installs a
	// firmware image onto: a flash region for code/rodata and a RAM region
	// for the stack and writable data, the Cortex-M analogue of the
	// teacher's code/data/heap/stack segment sizes.
	Memory struct {
		FlashBase uint32 `toml:"flash_base"`
		FlashSize uint32 `toml:"flash_size"`
		RAMBase   uint32 `toml:"ram_base"`
		RAMSize   uint32 `toml:"ram_size"`
	} `toml:"memory"`
}

// DefaultConfig returns a Config with this repository's default settings:
// a 1MB flash region at 0x0000_0000 and a 256KB RAM region at 0x2000_0000,
// matching the conventional Cortex-M memory map.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxCycles = 10_000_000
	cfg.Execution.EnableTrace = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowRegisters = true

	cfg.Memory.FlashBase = 0x0000_0000
	cfg.Memory.FlashSize = 1 << 20
	cfg.Memory.RAMBase = 0x2000_0000
	cfg.Memory.RAMSize = 256 << 10

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "cortexm-core")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "cortexm-core")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file is
// not an error: it yields DefaultConfig unchanged.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("config: creating directory %s: %w", dir, err)
	}

	f, err := os.Create(path) // #nosec G304 -- user-supplied config file path
	if err != nil {
		return fmt.Errorf("config: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("config: encoding %s: %w", path, err)
	}

	return nil
}
