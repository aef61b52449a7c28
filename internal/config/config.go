package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chimed/chimed/internal/logger"
)

// Config holds the settings shared by the chimed binaries.
type Config struct {
	// SocketPath is the unix socket path of the control API.
	SocketPath string `yaml:"socket_path"`
	// TickInterval is the cadence of the due-detection scan.
	TickInterval time.Duration `yaml:"tick_interval"`
	// Cooldown is the minimum spacing between two firings of one alarm.
	// It must exceed TickInterval.
	Cooldown time.Duration `yaml:"cooldown"`
	// LogLevel is the minimum level emitted by the daemon log.
	LogLevel string `yaml:"log_level"`
	// WebAddr is the listen address of the ops HTTP endpoint.
	// Empty disables the listener.
	WebAddr string `yaml:"web_addr,omitempty"`
	// HistoryFile is the SQLite path of the firing journal.
	// Empty disables the journal.
	HistoryFile string `yaml:"history_file,omitempty"`
	// HistoryRetention is how long journal rows are kept before the
	// periodic purge removes them.
	HistoryRetention time.Duration `yaml:"history_retention"`
	// Notify configures the outbound presenters.
	Notify NotifyConfig `yaml:"notify"`
}

// NotifyConfig configures the outbound presenters. The structured log
// presenter is always active; the others switch on when configured.
type NotifyConfig struct {
	// Command is an argv template executed on each firing, with {id},
	// {title}, {body}, {time} and {group} placeholders. Empty disables it.
	Command []string `yaml:"command,omitempty"`
	// WebhookURL receives a JSON document per firing. Empty disables it.
	WebhookURL string `yaml:"webhook_url,omitempty"`
	// Timeout bounds a single presenter invocation.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for daemon settings.
	DefaultConfigFilename = "chimed.yaml"

	// DefaultTickInterval is the default due-detection cadence.
	DefaultTickInterval = 30 * time.Second

	// DefaultCooldown is the default per-alarm dedup window.
	DefaultCooldown = time.Minute

	// DefaultLogLevel is the default daemon log level.
	DefaultLogLevel = "info"

	// DefaultHistoryRetention is the default journal retention age.
	DefaultHistoryRetention = 30 * 24 * time.Hour

	// DefaultNotifyTimeout is the default per-presenter timeout.
	DefaultNotifyTimeout = 10 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errSocketPathRequired is returned when the control socket path is missing.
	errSocketPathRequired = errors.New("control socket path must be provided")
	// errTickIntervalInvalid is returned when the tick interval is not positive.
	errTickIntervalInvalid = errors.New("tick interval must be positive")
	// errCooldownTooShort is returned when the cooldown does not exceed the tick interval.
	errCooldownTooShort = errors.New("cooldown must exceed the tick interval")
	// errLogLevelUnknown is returned when the log level is not recognized.
	errLogLevelUnknown = errors.New("unknown log level")
)

// DefaultSocketPath returns the default control socket path.
func DefaultSocketPath() string {
	return filepath.Join(os.TempDir(), "chimed.sock")
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := new(Config)
	cfg.ApplyDefaults()

	return cfg
}

// ApplyDefaults fills unset fields with their default values.
func (c *Config) ApplyDefaults() {
	if c.SocketPath == "" {
		c.SocketPath = DefaultSocketPath()
	}

	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}

	if c.Cooldown == 0 {
		c.Cooldown = DefaultCooldown
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	if c.HistoryRetention == 0 {
		c.HistoryRetention = DefaultHistoryRetention
	}

	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = DefaultNotifyTimeout
	}
}

// Load reads configuration from the provided path, applies defaults for
// unset fields and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	cfg.ApplyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and sane values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.SocketPath == "" {
		return errSocketPathRequired
	}

	if cfg.TickInterval <= 0 {
		return errTickIntervalInvalid
	}

	if cfg.Cooldown <= cfg.TickInterval {
		return errCooldownTooShort
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errLogLevelUnknown, cfg.LogLevel)
	}

	if cfg.WebAddr != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.WebAddr); err != nil {
			return fmt.Errorf("invalid web address: %w", err)
		}
	}

	if cfg.Notify.WebhookURL == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(cfg.Notify.WebhookURL); err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}

	return nil
}
