// Package config loads scan settings from defaults, a YAML file, the
// environment, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"randscan/port"
	"randscan/scanner"
)

// EnvPrefix is the prefix for environment overrides, e.g. RANDSCAN_TIMEOUT=2s.
const EnvPrefix = "RANDSCAN_"

// Progress display modes.
const (
	ProgressAuto = "auto"
	ProgressOn   = "on"
	ProgressOff  = "off"
)

// Config is the merged application configuration.
type Config struct {
	Ports       string        `koanf:"ports"`
	Timeout     time.Duration `koanf:"timeout"`
	Concurrency int           `koanf:"concurrency"`
	Seed        uint64        `koanf:"seed"`
	IPv6        bool          `koanf:"ipv6"`
	Progress    string        `koanf:"progress"`
	Output      OutputConfig  `koanf:"output"`
	Log         LogConfig     `koanf:"log"`
	GeoIP       GeoIPConfig   `koanf:"geoip"`
}

type OutputConfig struct {
	Format string `koanf:"format"` // text, json, yaml
	File   string `koanf:"file"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // text, json
}

type GeoIPConfig struct {
	Database string `koanf:"database"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		Ports:       "1-65535",
		Timeout:     scanner.DefaultTimeout,
		Concurrency: scanner.DefaultConcurrency,
		Progress:    ProgressAuto,
		Output:      OutputConfig{Format: "text"},
		Log:         LogConfig{Level: "warn", Format: "text"},
	}
}

// DefaultConfigAsMap flattens DefaultConfig for koanf's confmap provider.
func DefaultConfigAsMap() map[string]any {
	def := DefaultConfig()
	return map[string]any{
		"ports":          def.Ports,
		"timeout":        def.Timeout.String(),
		"concurrency":    def.Concurrency,
		"seed":           def.Seed,
		"ipv6":           def.IPv6,
		"progress":       def.Progress,
		"output.format":  def.Output.Format,
		"output.file":    def.Output.File,
		"log.level":      def.Log.Level,
		"log.format":     def.Log.Format,
		"geoip.database": def.GeoIP.Database,
	}
}

// PortList parses the configured port specification.
func (c Config) PortList() ([]uint16, error) {
	return port.ParsePortSpec(c.Ports)
}

// Validate checks values that would make a scan impossible.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.PortList(); err != nil {
		errs = append(errs, fmt.Errorf("ports: %w", err))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", c.Concurrency))
	}
	if !slices.Contains([]string{"text", "json", "yaml"}, strings.ToLower(c.Output.Format)) {
		errs = append(errs, fmt.Errorf("output.format must be text, json or yaml, got %q", c.Output.Format))
	}
	if !slices.Contains([]string{ProgressAuto, ProgressOn, ProgressOff}, c.Progress) {
		errs = append(errs, fmt.Errorf("progress must be auto, on or off, got %q", c.Progress))
	}
	return errors.Join(errs...)
}

// Manager loads configuration and hands out copies of it.
type Manager struct {
	k   *koanf.Koanf
	mu  sync.RWMutex
	cfg Config
}

// NewManager creates a Manager with its own koanf instance.
func NewManager() *Manager {
	return &Manager{k: koanf.New("."), cfg: DefaultConfig()}
}

// Load merges configuration in order of increasing precedence:
//  1. defaults
//  2. YAML file at path (if non-empty)
//  3. RANDSCAN_* environment variables (RANDSCAN_LOG_LEVEL -> log.level)
//  4. flags explicitly set on the command line
func (m *Manager) Load(flags *pflag.FlagSet, path string) error {
	return m.LoadWithSources(DefaultSources(path, flags))
}

// LoadWithSources loads the given sources, lowest priority first, then
// unmarshals and validates the result.
func (m *Manager) LoadWithSources(sources []Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority() < sources[j].Priority()
	})
	for _, src := range sources {
		if err := src.Load(m.k); err != nil {
			return fmt.Errorf("error loading config from %s: %w", src.Name(), err)
		}
	}

	var cfg Config
	if err := m.k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	m.cfg = cfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}
