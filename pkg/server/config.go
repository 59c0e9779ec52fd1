package server

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "CHANRELAY_"

// Config holds server configuration.
type Config struct {
	Host            string        `yaml:"host" env:"HOST"`                         // UDP bind host
	Port            int           `yaml:"port" env:"PORT"`                         // UDP bind port
	EvictionTimeout time.Duration `yaml:"eviction_timeout" env:"EVICTION_TIMEOUT"` // idle time before a session is dropped
	SweepInterval   time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`     // eviction cadence and socket read deadline
	ReadBufferSize  int           `yaml:"read_buffer_size" env:"READ_BUFFER_SIZE"` // largest datagram accepted
	MetricsAddr     string        `yaml:"metrics_addr" env:"METRICS_ADDR"`         // HTTP bind address for /metrics (empty = disabled)
	MetricsInterval time.Duration `yaml:"metrics_interval" env:"METRICS_INTERVAL"` // periodic metrics log cadence (0 = disabled)
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            9600,
		EvictionTimeout: 120 * time.Second,
		SweepInterval:   5 * time.Second,
		ReadBufferSize:  4096,
		MetricsAddr:     ":9602",
		MetricsInterval: 60 * time.Second,
	}
}

// Addr returns the UDP bind address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the fields that would otherwise fail at bind time or spin
// the event loop.
func (c Config) Validate() error {
	var errs []error
	// Port 0 binds an ephemeral port.
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range 0-65535", c.Port))
	}
	if c.EvictionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("eviction timeout must be positive, got %s", c.EvictionTimeout))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval))
	}
	if c.ReadBufferSize < 4 {
		errs = append(errs, fmt.Errorf("read buffer size must be at least 4, got %d", c.ReadBufferSize))
	}
	if c.MetricsInterval < 0 {
		errs = append(errs, fmt.Errorf("metrics interval must not be negative, got %s", c.MetricsInterval))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("server: invalid config: %w", err)
	}
	return nil
}

// LoadConfigFile overlays the YAML file at path onto cfg. Keys absent from
// the file keep their current values.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI flag
	if err != nil {
		return fmt.Errorf("server: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("server: parse config: %w", err)
	}
	return nil
}

// ApplyEnv overlays CHANRELAY_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("server: parse env: %w", err)
	}
	return nil
}

// ErrUsage reports positional arguments that are neither empty nor
// <host> <port>.
var ErrUsage = errors.New("server: expected no arguments or <host> <port>")

// BuildConfig layers defaults, the YAML file at path (if any), CHANRELAY_*
// environment variables, the flags explicitly set on fs and finally the
// positional host and port. flagCfg holds the values fs parsed into.
func BuildConfig(fs *flag.FlagSet, path string, flagCfg Config) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := LoadConfigFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = flagCfg.Host
		case "port":
			cfg.Port = flagCfg.Port
		case "eviction-timeout":
			cfg.EvictionTimeout = flagCfg.EvictionTimeout
		case "sweep-interval":
			cfg.SweepInterval = flagCfg.SweepInterval
		case "metrics":
			cfg.MetricsAddr = flagCfg.MetricsAddr
		case "metrics-interval":
			cfg.MetricsInterval = flagCfg.MetricsInterval
		}
	})

	switch fs.NArg() {
	case 0:
	case 2:
		port, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			return cfg, fmt.Errorf("server: invalid port %q: %w", fs.Arg(1), err)
		}
		cfg.Host = fs.Arg(0)
		cfg.Port = port
	default:
		return cfg, ErrUsage
	}
	return cfg, cfg.Validate()
}

// RegisterFlags binds the server flags on fs to cfg.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Host, "host", cfg.Host, "UDP bind host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "UDP bind port")
	fs.DurationVar(&cfg.EvictionTimeout, "eviction-timeout", cfg.EvictionTimeout, "Idle time before a session is evicted")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "How often idle sessions are swept")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "HTTP bind address for Prometheus /metrics (empty to disable)")
	fs.DurationVar(&cfg.MetricsInterval, "metrics-interval", cfg.MetricsInterval, "Periodic metrics log interval (0 to disable)")
}
