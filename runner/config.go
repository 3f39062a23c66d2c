package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/amp-labs/amp-transducer/envutil"
	"github.com/amp-labs/amp-transducer/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimeoutMillis = 60_000
	defaultWorkers       = 1
	defaultJoiners       = 1
)

// Config describes a scheduler that owns its worker and joiner pools.
type Config struct {
	Name          string `json:"name"          yaml:"name"`
	TimeoutMillis int    `json:"timeoutMillis" yaml:"timeout_millis"`
	Workers       int    `json:"workers"       yaml:"workers"`
	Joiners       int    `json:"joiners"       yaml:"joiners"`
}

// DefaultConfig returns a one worker, one joiner configuration with a one
// minute timeout.
func DefaultConfig() Config {
	return Config{
		Name:          defaultName,
		TimeoutMillis: defaultTimeoutMillis,
		Workers:       defaultWorkers,
		Joiners:       defaultJoiners,
	}
}

// Timeout converts TimeoutMillis. Zero means no timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs errors.Collection

	if c.Name == "" {
		errs.Add(fmt.Errorf("%w: name is required", ErrInvalidConfig))
	}

	if c.TimeoutMillis < 0 {
		errs.Add(fmt.Errorf("%w: timeout_millis must not be negative, got %d", ErrInvalidConfig, c.TimeoutMillis))
	}

	if c.Workers < 1 {
		errs.Add(fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers))
	}

	if c.Joiners < 1 {
		errs.Add(fmt.Errorf("%w: joiners must be at least 1, got %d", ErrInvalidConfig, c.Joiners))
	}

	return errs.GetError()
}

// LoadConfig reads a YAML file. Fields the file leaves out keep their
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read runner config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse runner config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ConfigFromEnv reads RUNNER_NAME, RUNNER_TIMEOUT_MILLIS, RUNNER_WORKERS and
// RUNNER_JOINERS on top of the defaults.
func ConfigFromEnv(ctx context.Context) (Config, error) {
	cfg := DefaultConfig()

	var errs errors.Collection

	name, err := envutil.String(ctx, "RUNNER_NAME", envutil.Default(cfg.Name)).Value()
	errs.Add(err)

	timeout, err := envutil.Int(ctx, "RUNNER_TIMEOUT_MILLIS", envutil.Default(cfg.TimeoutMillis)).Value()
	errs.Add(err)

	workers, err := envutil.Int(ctx, "RUNNER_WORKERS", envutil.Default(cfg.Workers)).Value()
	errs.Add(err)

	joiners, err := envutil.Int(ctx, "RUNNER_JOINERS", envutil.Default(cfg.Joiners)).Value()
	errs.Add(err)

	if errs.HasError() {
		return cfg, errs.GetError()
	}

	cfg = Config{
		Name:          name,
		TimeoutMillis: timeout,
		Workers:       workers,
		Joiners:       joiners,
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}
