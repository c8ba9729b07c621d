// Package config describes the standard filter stack put in front of a Service, and loads it from YAML.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/monzo/terrors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is the code (beneath bad_request) of configuration errors.
const ErrInvalidConfig = "invalid_config"

// Config selects and tunes the filters of a stack. The zero value enables nothing.
type Config struct {
	// Timeout bounds each call. 0 disables the timeout filter.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
	// Expiration rejects calls whose context has already ended.
	Expiration bool `yaml:"expiration"`
	// Log logs the outcome of each call.
	Log bool `yaml:"log"`
	// Metrics records Prometheus metrics for each call.
	Metrics bool `yaml:"metrics"`
	// Errors normalises errors into terrors.
	Errors bool `yaml:"errors"`
	// Recover converts panics into errors.
	Recover bool `yaml:"recover"`

	// RateLimit, when set, admits calls through a token bucket.
	RateLimit *RateLimit `yaml:"rate_limit"`
	// Breaker, when set, guards calls with a circuit breaker.
	Breaker *Breaker `yaml:"breaker"`
}

// RateLimit configures a token bucket.
type RateLimit struct {
	RPS   float64 `yaml:"rps" validate:"gt=0"`
	Burst int     `yaml:"burst" validate:"gte=1"`
	// Wait makes calls queue for a token rather than failing.
	Wait bool `yaml:"wait"`
}

// Breaker configures a circuit breaker.
type Breaker struct {
	MaxRequests         uint32        `yaml:"max_requests" validate:"gte=1"`
	Interval            time.Duration `yaml:"interval" validate:"gte=0"`
	OpenTimeout         time.Duration `yaml:"open_timeout" validate:"gt=0"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures" validate:"gte=1"`
}

// Default returns the configuration most services want: everything but rate limiting and circuit breaking, with a
// ten second timeout.
func Default() Config {
	return Config{
		Timeout:    10 * time.Second,
		Expiration: true,
		Log:        true,
		Metrics:    true,
		Errors:     true,
		Recover:    true}
}

// Parse decodes YAML into a Config on top of Default, and validates the result. Unknown keys are rejected.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, terrors.BadRequest(ErrInvalidConfig, "Failed to parse config: "+err.Error(), nil)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, terrors.BadRequest(ErrInvalidConfig, "Failed to read config: "+err.Error(), map[string]string{
			"path": path})
	}
	cfg, err := Parse(b)
	if err != nil {
		return Config{}, terrors.Augment(err, "Failed to load config", map[string]string{
			"path": path})
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the values of c.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		params := map[string]string{}
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				params[fe.Namespace()] = fe.Tag()
			}
		}
		return terrors.BadRequest(ErrInvalidConfig, "Invalid config: "+err.Error(), params)
	}
	return nil
}
