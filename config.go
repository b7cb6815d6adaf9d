package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// configFile is the config looked for in the working directory when no
// explicit path is given.
const configFile = "gobf.toml"

// Config is a gobf.toml machine configuration; zero values defer to the
// built in defaults.
type Config struct {
	CellWidth   uint   `toml:"cell-width"`
	StrictCells bool   `toml:"strict-cells"`
	ClampEdge   bool   `toml:"clamp-edge"`
	TapeLimit   int    `toml:"tape-limit"`
	StepLimit   uint64 `toml:"step-limit"`
	OptLevel    int    `toml:"opt"`
	Trace       bool   `toml:"trace"`
}

func defaultConfig() Config {
	return Config{
		CellWidth: 8,
		OptLevel:  2,
	}
}

// loadConfig parses a toml config file over the defaults, rejecting keys
// it does not know about.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return cfg, fmt.Errorf("config: unknown key %q in %s", undec[0].String(), path)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("%w in %s", err, path)
	}
	return cfg, nil
}

// findConfig loads the given config file, or when path is empty looks for
// gobf.toml in the working directory, falling back to defaults.
func findConfig(path string) (Config, error) {
	if path != "" {
		return loadConfig(path)
	}
	if _, err := os.Stat(configFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaultConfig(), nil
		}
		return defaultConfig(), fmt.Errorf("config: stat %s: %w", configFile, err)
	}
	return loadConfig(configFile)
}

func (cfg Config) validate() error {
	switch cfg.CellWidth {
	case 8, 16, 32:
	default:
		return fmt.Errorf("config: unsupported cell width %v", cfg.CellWidth)
	}
	if cfg.OptLevel < 0 || cfg.OptLevel > 2 {
		return fmt.Errorf("config: unsupported optimization level %v", cfg.OptLevel)
	}
	if cfg.TapeLimit < 0 {
		return fmt.Errorf("config: negative tape limit %v", cfg.TapeLimit)
	}
	return nil
}

// options lowers the config into machine options; Trace is not covered,
// since log wiring belongs to the caller.
func (cfg Config) options() []VMOption {
	opts := []VMOption{
		WithCellWidth(cfg.CellWidth),
		WithOptLevel(cfg.OptLevel),
	}
	if cfg.StrictCells {
		opts = append(opts, WithStrictCells())
	}
	if cfg.ClampEdge {
		opts = append(opts, WithClampedEdge())
	}
	if cfg.TapeLimit > 0 {
		opts = append(opts, WithTapeLimit(cfg.TapeLimit))
	}
	if cfg.StepLimit > 0 {
		opts = append(opts, WithStepLimit(cfg.StepLimit))
	}
	return opts
}
