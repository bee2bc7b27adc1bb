// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/form019-finder/internal/form019"
	"github.com/form019-finder/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix      = "FORM019"
	DefaultBaseDir = `P:\2025 Run Data`
	DefaultHost    = "127.0.0.1"
	DefaultPort    = 5000

	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
)

// Config holds the server configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Scan      ScanConfig      `mapstructure:"scan" yaml:"scan"`
	Jobs      JobsConfig      `mapstructure:"jobs" yaml:"jobs"`
	Redis     RedisConfig     `mapstructure:"redis" yaml:"redis"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Notify    NotifyConfig    `mapstructure:"notify" yaml:"notify"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" yaml:"ratelimit"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// Addr returns host:port for the listener
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type ScanConfig struct {
	BaseDir            string   `mapstructure:"base_dir" yaml:"base_dir"`
	UnitFolders        []string `mapstructure:"unit_folders" yaml:"unit_folders"`
	PartTypes          []string `mapstructure:"part_types" yaml:"part_types"`
	PDFBackend         string   `mapstructure:"pdf_backend" yaml:"pdf_backend"`
	KeepPartialResults bool     `mapstructure:"keep_partial_results" yaml:"keep_partial_results"`
	MaxFileSize        int64    `mapstructure:"max_file_size" yaml:"max_file_size"`
}

type JobsConfig struct {
	Store         string        `mapstructure:"store" yaml:"store"` // "memory" or "redis"
	Retention     time.Duration `mapstructure:"retention" yaml:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
}

type NotifyConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// RateLimitConfig limits POST /start per client: one token every Every, up to Burst
type RateLimitConfig struct {
	Every time.Duration `mapstructure:"every" yaml:"every"`
	Burst int           `mapstructure:"burst" yaml:"burst"`
}

// Default returns the built-in configuration
func Default() *Config {
	dataDir := ".form019"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".form019")
	}

	return &Config{
		Server: ServerConfig{Host: DefaultHost, Port: DefaultPort},
		Scan: ScanConfig{
			BaseDir:     DefaultBaseDir,
			UnitFolders: append([]string(nil), form019.DefaultUnitFolders...),
			PartTypes:   append([]string(nil), form019.DefaultPartTypes...),
			PDFBackend:  "fitz",
			MaxFileSize: DefaultMaxFileSize,
		},
		Jobs: JobsConfig{
			Store:         "memory",
			Retention:     time.Hour,
			SweepInterval: time.Minute,
		},
		Redis:  RedisConfig{Addr: "127.0.0.1:6379", KeyPrefix: "form019:"},
		Cache:  CacheConfig{Enabled: true, Dir: filepath.Join(dataDir, "cache")},
		Notify: NotifyConfig{Enabled: false},
		Log:    LogConfig{Level: "info"},
		RateLimit: RateLimitConfig{
			Every: 2 * time.Second,
			Burst: 5,
		},
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Scan.PDFBackend {
	case "fitz", "pure":
	default:
		return fmt.Errorf("scan.pdf_backend must be 'fitz' or 'pure', got %q", c.Scan.PDFBackend)
	}
	switch c.Jobs.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("jobs.store must be 'memory' or 'redis', got %q", c.Jobs.Store)
	}
	if len(c.Scan.UnitFolders) == 0 {
		return errors.New("scan.unit_folders cannot be empty")
	}
	if len(c.Scan.PartTypes) == 0 {
		return errors.New("scan.part_types cannot be empty")
	}
	if c.Jobs.Retention < 0 || c.Jobs.SweepInterval < 0 {
		return errors.New("jobs.retention and jobs.sweep_interval cannot be negative")
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return errors.New("cache.dir cannot be empty when the cache is enabled")
	}
	if c.RateLimit.Every > 0 && c.RateLimit.Burst < 1 {
		return errors.New("ratelimit.burst must be at least 1")
	}
	return nil
}

// Loader reads configuration from defaults, a YAML file, a .env file,
// FORM019_* environment variables and command-line flags, in increasing priority
type Loader struct {
	v     *viper.Viper
	flags *pflag.FlagSet
	mu    sync.Mutex
}

// NewLoader creates a loader with its own viper instance and flag set
func NewLoader(name string) *Loader {
	l := &Loader{
		v:     viper.New(),
		flags: pflag.NewFlagSet(name, pflag.ContinueOnError),
	}
	setDefaults(l.v, Default())
	defineFlags(l.flags)
	return l
}

// Flags exposes the flag set, e.g. for usage output
func (l *Loader) Flags() *pflag.FlagSet {
	return l.flags
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("scan.base_dir", d.Scan.BaseDir)
	v.SetDefault("scan.unit_folders", d.Scan.UnitFolders)
	v.SetDefault("scan.part_types", d.Scan.PartTypes)
	v.SetDefault("scan.pdf_backend", d.Scan.PDFBackend)
	v.SetDefault("scan.keep_partial_results", d.Scan.KeepPartialResults)
	v.SetDefault("scan.max_file_size", d.Scan.MaxFileSize)
	v.SetDefault("jobs.store", d.Jobs.Store)
	v.SetDefault("jobs.retention", d.Jobs.Retention)
	v.SetDefault("jobs.sweep_interval", d.Jobs.SweepInterval)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.key_prefix", d.Redis.KeyPrefix)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("notify.enabled", d.Notify.Enabled)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("ratelimit.every", d.RateLimit.Every)
	v.SetDefault("ratelimit.burst", d.RateLimit.Burst)
}

// flagKeys maps command-line flags to config keys
var flagKeys = map[string]string{
	"host":        "server.host",
	"port":        "server.port",
	"base-dir":    "scan.base_dir",
	"pdf-backend": "scan.pdf_backend",
	"job-store":   "jobs.store",
	"log-level":   "log.level",
	"log-file":    "log.file",
}

func defineFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to config file (default ~/.form019/config.yaml)")
	fs.String("env-file", ".env", "Optional .env file loaded before reading the environment")
	fs.String("host", DefaultHost, "HTTP listen host")
	fs.Int("port", DefaultPort, "HTTP listen port")
	fs.String("base-dir", DefaultBaseDir, "Default base directory offered by the search form")
	fs.String("pdf-backend", "fitz", "PDF text backend: 'fitz' (MuPDF) or 'pure' (pure Go)")
	fs.String("job-store", "memory", "Job store: 'memory' or 'redis'")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.String("log-file", "", "Also write logs to this file")
}

// Load parses args and returns the merged configuration. A missing config file
// is created with the defaults.
func (l *Loader) Load(args []string) (*Config, error) {
	if err := l.flags.Parse(args); err != nil {
		return nil, err
	}

	envFile, _ := l.flags.GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	for name, key := range flagKeys {
		if err := l.v.BindPFlag(key, l.flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	configFile, _ := l.flags.GetString("config")
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configFile = filepath.Join(home, ".form019", "config.yaml")
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := WriteDefault(configFile); err != nil {
			return nil, fmt.Errorf("failed to generate default config: %w", err)
		}
		logger.Printf("Generated default config: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ConfigFile returns the file in use
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Watch re-reads the file on every change and passes valid configurations to
// onChange. Invalid edits are logged and ignored.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			logger.Warnf("Ignoring config change in %s: %v", e.Name, err)
			return
		}
		logger.Printf("Config reloaded from %s", e.Name)
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// WriteDefault writes the default configuration as YAML to path
func WriteDefault(path string) error {
	d := Default()
	doc := map[string]interface{}{
		"server": d.Server,
		"scan":   d.Scan,
		"jobs": map[string]string{
			"store":          d.Jobs.Store,
			"retention":      d.Jobs.Retention.String(),
			"sweep_interval": d.Jobs.SweepInterval.String(),
		},
		"redis":  d.Redis,
		"cache":  d.Cache,
		"notify": d.Notify,
		"log":    d.Log,
		"ratelimit": map[string]interface{}{
			"every": d.RateLimit.Every.String(),
			"burst": d.RateLimit.Burst,
		},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	header := []byte("# FORM-019 Finder configuration\n# Environment variables FORM019_<SECTION>_<KEY> override these values\n\n")
	return os.WriteFile(path, append(header, out...), 0644)
}
