package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/querycraft/dialect"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qcraft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("qcraft", pflag.ContinueOnError)
	fs.StringP("dialect", "d", DefaultDialect, "")
	fs.String("dsn", "", "")
	fs.StringP("output", "o", DefaultOutput, "")
	fs.Int("cache-size", DefaultCacheSize, "")
	fs.String("log-level", DefaultLogLevel, "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, dialect.Postgres, cfg.Dialect)
	assert.Equal(t, "text", cfg.Output)
	assert.Equal(t, DefaultCacheSize, cfg.Cache.Size)
	assert.Zero(t, cfg.Cache.TTL)
	assert.Equal(t, DefaultSlowThreshold, cfg.Slow.Threshold)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.File)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
dialect: MariaDB
dsn: "root:pass@tcp(localhost:3306)/app"
cache:
  size: 64
  ttl: 5m
slow:
  threshold: 1s
log:
  level: debug
  format: json
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, dialect.MySQL, cfg.Dialect)
	assert.Equal(t, "root:pass@tcp(localhost:3306)/app", cfg.DSN)
	assert.Equal(t, 64, cfg.Cache.Size)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, time.Second, cfg.Slow.Threshold)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, path, cfg.File)
}

func TestLoadWorkingDirFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qcraft.yml"), []byte("dialect: sqlite3\n"), 0o600))
	t.Chdir(dir)
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, cfg.Dialect)
	assert.Equal(t, "qcraft.yml", cfg.File)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, "dialect: mysql\ncache:\n  size: 10\nlog:\n  level: warn\n")
	t.Setenv("QCRAFT_DIALECT", "sqlite")
	t.Setenv("QCRAFT_CACHE_SIZE", "20")
	t.Setenv("QCRAFT_SLOW_THRESHOLD", "50ms")

	fs := flags()
	require.NoError(t, fs.Parse([]string{"--dialect", "pg", "--log-level", "error"}))
	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, dialect.Postgres, cfg.Dialect, "flags override env")
	assert.Equal(t, 20, cfg.Cache.Size, "env overrides file; unset flags do not override")
	assert.Equal(t, 50*time.Millisecond, cfg.Slow.Threshold)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "dialect", env: map[string]string{"QCRAFT_DIALECT": "oracle"}},
		{name: "output", env: map[string]string{"QCRAFT_OUTPUT": "xml"}},
		{name: "log level", env: map[string]string{"QCRAFT_LOG_LEVEL": "loud"}},
		{name: "log format", env: map[string]string{"QCRAFT_LOG_FORMAT": "logfmt"}},
		{name: "cache size", env: map[string]string{"QCRAFT_CACHE_SIZE": "0"}},
		{name: "duration", env: map[string]string{"QCRAFT_SLOW_THRESHOLD": "soon"}},
		{name: "yaml", file: "dialect: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}
			_, err := Load(path, nil)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Log: LogConfig{Level: "warn", Format: "json"}}
	l := cfg.Logger(&buf)
	l.Info("hidden")
	l.Warn("shown", "dialect", "mysql")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"dialect":"mysql"`)

	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, LoggerFrom(ctx))
	assert.NotNil(t, LoggerFrom(context.Background()))
}
