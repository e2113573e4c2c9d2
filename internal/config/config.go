// Package config resolves runtime settings for the rentflow binaries:
// built-in defaults, then an optional YAML file, then RENTFLOW_* environment
// variables, then explicit options.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-rentflow/pkg/staging"
	"github.com/goliatone/go-rentflow/pkg/storage"
)

const (
	DefaultAPIBaseURL = "http://localhost:8000"
	DefaultBucket     = "documents"
	DefaultLogLevel   = "info"
	DefaultTimeout    = 30 * time.Second

	envPrefix = "RENTFLOW_"
)

// ErrNoUploader is returned when neither a storage endpoint nor an upload
// directory is configured.
var ErrNoUploader = errors.New("config: no storage endpoint or upload directory configured")

// StorageConfig selects where documents go before a record is created.
type StorageConfig struct {
	BaseURL string `yaml:"base_url"`
	Bucket  string `yaml:"bucket"`
	APIKey  string `yaml:"api_key"`
	// Dir stores uploads on the local filesystem when BaseURL is empty.
	Dir string `yaml:"dir"`
}

// Config holds the resolved settings.
type Config struct {
	APIBaseURL    string        `yaml:"api_base_url"`
	Storage       StorageConfig `yaml:"storage"`
	SessionFile   string        `yaml:"session_file"`
	MaxUploadSize int64         `yaml:"max_upload_size"`
	LogLevel      string        `yaml:"log_level"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Option adjusts the configuration after the file and environment layers.
type Option func(*loader)

type loader struct {
	cfg    Config
	lookup func(string) (string, bool)
	edits  []func(*Config)
}

// WithLookupEnv replaces os.LookupEnv, mostly for tests.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(l *loader) {
		if fn != nil {
			l.lookup = fn
		}
	}
}

// WithAPIBaseURL forces the backend URL.
func WithAPIBaseURL(u string) Option {
	return edit(func(c *Config) { c.APIBaseURL = u })
}

// WithSessionFile forces the session file location.
func WithSessionFile(path string) Option {
	return edit(func(c *Config) { c.SessionFile = path })
}

// WithLogLevel forces the log level.
func WithLogLevel(level string) Option {
	return edit(func(c *Config) { c.LogLevel = level })
}

// WithUploadDir stores documents under dir instead of remote storage.
func WithUploadDir(dir string) Option {
	return edit(func(c *Config) {
		c.Storage.Dir = dir
		c.Storage.BaseURL = ""
	})
}

func edit(fn func(*Config)) Option {
	return func(l *loader) {
		l.edits = append(l.edits, fn)
	}
}

// Defaults returns the built-in settings.
func Defaults() Config {
	cfg := Config{
		APIBaseURL:    DefaultAPIBaseURL,
		Storage:       StorageConfig{Bucket: DefaultBucket},
		MaxUploadSize: staging.DefaultMaxSize,
		LogLevel:      DefaultLogLevel,
		Timeout:       DefaultTimeout,
	}
	if dir, err := os.UserConfigDir(); err == nil {
		cfg.SessionFile = filepath.Join(dir, "rentflow", "session.json")
	}
	return cfg
}

// Load resolves the configuration. An empty path skips the file layer; a
// named file that does not exist is an error.
func Load(path string, options ...Option) (*Config, error) {
	l := &loader{cfg: Defaults(), lookup: os.LookupEnv}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}

	if path = strings.TrimSpace(path); path != "" {
		if err := l.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := l.applyEnv(); err != nil {
		return nil, err
	}
	for _, fn := range l.edits {
		fn(&l.cfg)
	}

	cfg := l.cfg
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *loader) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: %s not found", path)
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &l.cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (l *loader) env(name string) (string, bool) {
	v, ok := l.lookup(envPrefix + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (l *loader) applyEnv() error {
	strs := map[string]*string{
		"API_URL":         &l.cfg.APIBaseURL,
		"STORAGE_URL":     &l.cfg.Storage.BaseURL,
		"STORAGE_BUCKET":  &l.cfg.Storage.Bucket,
		"STORAGE_API_KEY": &l.cfg.Storage.APIKey,
		"UPLOAD_DIR":      &l.cfg.Storage.Dir,
		"SESSION_FILE":    &l.cfg.SessionFile,
		"LOG_LEVEL":       &l.cfg.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := l.env(name); ok {
			*dst = v
		}
	}

	if v, ok := l.env("MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %sMAX_UPLOAD_BYTES: %w", envPrefix, err)
		}
		l.cfg.MaxUploadSize = n
	}
	if v, ok := l.env("TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sTIMEOUT: %w", envPrefix, err)
		}
		l.cfg.Timeout = d
	}
	return nil
}

func (c *Config) normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.Storage.BaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.BaseURL), "/")
	c.Storage.Bucket = strings.Trim(strings.TrimSpace(c.Storage.Bucket), "/")
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = DefaultBucket
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := absoluteURL("api_base_url", c.APIBaseURL); err != nil {
		return err
	}
	if c.Storage.BaseURL != "" {
		if err := absoluteURL("storage.base_url", c.Storage.BaseURL); err != nil {
			return err
		}
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("config: max_upload_size must be positive, got %d", c.MaxUploadSize)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func absoluteURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: %s %q must be an absolute URL", name, raw)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log_level %q: %w", s, err)
	}
	return level, nil
}

// Logger returns a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Stager returns a stager enforcing MaxUploadSize.
func (c Config) Stager() *staging.Stager {
	return staging.New(staging.WithMaxSize(c.MaxUploadSize))
}

// Uploader builds the document uploader: the remote object store when a
// storage URL is set, otherwise the local directory.
func (c Config) Uploader(logger *slog.Logger) (storage.Uploader, error) {
	switch {
	case c.Storage.BaseURL != "":
		up, err := storage.NewHTTPUploader(c.Storage.BaseURL, c.Storage.Bucket,
			storage.WithAPIKey(c.Storage.APIKey),
			storage.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return up, nil
	case c.Storage.Dir != "":
		up, err := storage.NewDirUploader(c.Storage.Dir)
		if err != nil {
			return nil, err
		}
		return up, nil
	default:
		return nil, ErrNoUploader
	}
}
