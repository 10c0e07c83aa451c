package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration of oxy-contract.
//
//	shaders:
//	  - engine/renderer/shader/testdata
//	workers: 4
//	log_level: debug
//	development: true
type Config struct {
	// Shaders lists WGSL files or directories searched recursively for *.wgsl files.
	Shaders []string `yaml:"shaders"`
	// Workers is the number of concurrent verifications. Zero means one per CPU.
	Workers int `yaml:"workers"`
	// LogLevel is a zap level name: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
	// Development switches to zap's human-readable development encoder.
	Development bool `yaml:"development"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Workers:  runtime.NumCPU(),
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML config file over DefaultConfig. An empty path returns the defaults.
//
// Parameters:
//   - path: the config file, or "" for none
//
// Returns:
//   - Config: the merged configuration
//   - error: a read, parse or validation error
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}
	return cfg, nil
}

// NewLogger builds the zap logger described by the config, writing to w.
//
// Parameters:
//   - w: the log destination, usually os.Stderr
//
// Returns:
//   - *zap.Logger: a JSON logger, or a console logger in development mode
//   - error: an error if LogLevel is not a zap level
func (c Config) NewLogger(w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	var opts []zap.Option
	if c.Development {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		opts = append(opts, zap.Development(), zap.AddCaller())
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core, opts...), nil
}
