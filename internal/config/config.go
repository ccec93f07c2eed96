// Package config loads the qcraft command line configuration.
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/syssam/querycraft/dialect"
)

// EnvPrefix prefixes every environment variable read by Load.
// QCRAFT_LOG_LEVEL sets log.level.
const EnvPrefix = "QCRAFT_"

// Defaults.
const (
	DefaultDialect       = dialect.Postgres
	DefaultOutput        = "text"
	DefaultCacheSize     = 1024
	DefaultSlowThreshold = 200 * time.Millisecond
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// configFiles are looked up in the working directory when no file is given.
var configFiles = []string{"qcraft.yaml", "qcraft.yml"}

// Config holds all CLI configuration options.
type Config struct {
	Dialect string      `koanf:"dialect"`
	DSN     string      `koanf:"dsn"`
	Output  string      `koanf:"output"` // text or json
	Cache   CacheConfig `koanf:"cache"`
	Slow    SlowConfig  `koanf:"slow"`
	Log     LogConfig   `koanf:"log"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// CacheConfig configures the render cache.
type CacheConfig struct {
	Size int           `koanf:"size"`
	TTL  time.Duration `koanf:"ttl"`
}

// SlowConfig configures slow statement logging of exec.
type SlowConfig struct {
	Threshold time.Duration `koanf:"threshold"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // text or json
}

// Load reads the configuration. Later layers override earlier ones:
// defaults, the YAML file (path, or ./qcraft.yaml when empty), QCRAFT_
// environment variables and the flags of fs that were set explicitly.
// Flag names map to keys by replacing "-" with ".", so --log-level sets
// log.level.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(map[string]any{
		"dialect":        DefaultDialect,
		"output":         DefaultOutput,
		"cache.size":     DefaultCacheSize,
		"slow.threshold": DefaultSlowThreshold.String(),
		"log.level":      DefaultLogLevel,
		"log.format":     DefaultLogFormat,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path == "" {
		path = findFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "."), posflag.FlagVal(fs, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("config: load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.File = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findFile() string {
	for _, name := range configFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Validate checks the values and normalizes the dialect name.
func (c *Config) Validate() error {
	d, err := dialect.Lookup(c.Dialect)
	if err != nil {
		return fmt.Errorf("config: dialect: %w", err)
	}
	c.Dialect = d
	switch c.Output {
	case "text", "json":
	default:
		return fmt.Errorf("config: output must be text or json, got %q", c.Output)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("config: cache.size must be positive, got %d", c.Cache.Size)
	}
	if c.Cache.TTL < 0 || c.Slow.Threshold < 0 {
		return fmt.Errorf("config: durations must not be negative")
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return lvl, nil
}

// Logger returns a logger writing to w in the configured format and level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.Log.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

type loggerKey struct{}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// LoggerFrom returns the logger stored in ctx, or a logger that discards
// everything.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
