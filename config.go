package gridfilter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// Config contains configuration for an Engine.
type Config struct {
	// Logger for internal logging.
	// OPTIONAL: Uses a text handler on stderr if nil.
	// If LogLevel is also set, LogLevel is ignored (use pre-configured logger).
	Logger *slog.Logger

	// LogLevel sets the logging level.
	// OPTIONAL: If nil, uses Info level.
	// Valid values: slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError
	LogLevel *slog.Level

	// Strict turns literal coercion failures and operators a field's
	// category does not admit into compile errors.
	// OPTIONAL: Defaults to false (the offending leaf accepts every record).
	Strict bool

	// Location is the time zone for date/time literals without an offset.
	// OPTIONAL: Uses UTC if nil.
	Location *time.Location

	// MaxPageSize caps grid page sizes.
	// OPTIONAL: Zero means no cap. MUST NOT be negative.
	MaxPageSize int
}

// Standard errors returned by gridfilter package.
var (
	// ErrInvalidConfig indicates Config validation failed.
	ErrInvalidConfig = errors.New("invalid gridfilter config")
)

// fileConfig is the loose form of Config read from maps and YAML files.
type fileConfig struct {
	LogLevel    string `mapstructure:"log_level"`
	Strict      bool   `mapstructure:"strict"`
	Location    string `mapstructure:"location"`
	MaxPageSize int    `mapstructure:"max_page_size"`
}

// ConfigFromMap decodes a loosely-typed map, such as a section of an
// application's configuration:
//
//	cfg, err := gridfilter.ConfigFromMap(map[string]any{
//	    "log_level":     "debug",
//	    "strict":        "true",
//	    "location":      "Europe/Berlin",
//	    "max_page_size": 500,
//	})
//
// Scalars are converted weakly ("true" to true, "500" to 500). Unknown keys
// are rejected.
func ConfigFromMap(m map[string]any) (*Config, error) {
	var fc fileConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &fc,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg := &Config{Strict: fc.Strict, MaxPageSize: fc.MaxPageSize}
	if fc.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.TrimSpace(fc.LogLevel))); err != nil {
			return nil, fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
		}
		cfg.LogLevel = &level
	}
	if fc.Location != "" {
		loc, err := time.LoadLocation(fc.Location)
		if err != nil {
			return nil, fmt.Errorf("%w: location: %v", ErrInvalidConfig, err)
		}
		cfg.Location = loc
	}
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file with the keys ConfigFromMap
// accepts.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML configuration document.
func ParseConfig(data []byte) (*Config, error) {
	m := map[string]any{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return ConfigFromMap(m)
}

// validateConfig checks that Config fields are valid.
func validateConfig(cfg *Config) error {
	if cfg.MaxPageSize < 0 {
		return fmt.Errorf("max page size cannot be negative")
	}
	return nil
}

// logger resolves the configured logger.
func (cfg *Config) logger() *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	level := slog.LevelInfo
	if cfg.LogLevel != nil {
		level = *cfg.LogLevel
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
