package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	appName    = "respcache"
	envPrefix  = "RESPCACHE"
	configName = "respcache"
)

// LocalConfigFile is the config file looked up in the working directory
// before the platform config directory.
const LocalConfigFile = configName + ".yaml"

// Config represents the respcache configuration.
type Config struct {
	Cache  CacheConfig  `mapstructure:"cache" yaml:"cache"`
	Keys   KeysConfig   `mapstructure:"keys" yaml:"keys"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	Dir          string        `mapstructure:"dir" yaml:"dir"`
	TTL          time.Duration `mapstructure:"ttl" yaml:"ttl"`
	SweepWorkers int           `mapstructure:"sweep_workers" yaml:"sweep_workers"`
	TempGrace    time.Duration `mapstructure:"temp_grace" yaml:"temp_grace"`
}

// KeysConfig controls key derivation for request text.
type KeysConfig struct {
	MaxTextChars int `mapstructure:"max_text_chars" yaml:"max_text_chars"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// OutputConfig controls how command results are printed.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Enabled:      true,
			Dir:          "cache",
			TTL:          7 * 24 * time.Hour,
			SweepWorkers: 4,
			TempGrace:    time.Hour,
		},
		Keys: KeysConfig{
			MaxTextChars: 15000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"cache-dir":  "cache.dir",
	"ttl":        "cache.ttl",
	"log-level":  "log.level",
	"log-format": "log.format",
	"format":     "output.format",
}

// RegisterFlags adds the flags that override config keys to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file path")
	fs.String("cache-dir", "", "Cache directory")
	fs.Duration("ttl", 0, "Entry time-to-live (e.g. 168h)")
	fs.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	fs.String("log-format", "", "Log format (console, json)")
	fs.String("format", "", "Output format (text, json)")
}

// ConfigDir returns the platform-appropriate config directory for respcache.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		return filepath.Join(home, "AppData", "Roaming", appName), nil
	default:
		return filepath.Join(home, ".config", appName), nil
	}
}

// ConfigPath returns the full path to the user config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LocalConfigFile), nil
}

// Load builds the effective config by merging: defaults <- file <- env <- flags.
// When path is empty, respcache.yaml is searched for in the working directory
// and then in ConfigDir. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := newViper()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" && flags != nil {
		if f := flags.Lookup("config"); f != nil {
			path = f.Value.String()
		}
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile loads defaults overlaid with the file at path only. A missing file
// yields the defaults.
func LoadFile(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.SweepWorkers <= 0 {
		return fmt.Errorf("cache.sweep_workers must be positive, got %d", c.Cache.SweepWorkers)
	}
	if c.Cache.TempGrace < 0 {
		return fmt.Errorf("cache.temp_grace must not be negative, got %s", c.Cache.TempGrace)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format: %s", c.Log.Format)
	}
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown output format: %s", c.Output.Format)
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "cache.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cache.enabled must be a boolean: %w", err)
		}
		cfg.Cache.Enabled = b
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttl":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("cache.ttl must be a duration: %w", err)
		}
		cfg.Cache.TTL = d
	case "cache.sweep_workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("cache.sweep_workers must be an integer: %w", err)
		}
		cfg.Cache.SweepWorkers = n
	case "cache.temp_grace":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("cache.temp_grace must be a duration: %w", err)
		}
		cfg.Cache.TempGrace = d
	case "keys.max_text_chars":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("keys.max_text_chars must be an integer: %w", err)
		}
		cfg.Keys.MaxTextChars = n
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	case "output.format":
		cfg.Output.Format = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.sweep_workers", d.Cache.SweepWorkers)
	v.SetDefault("cache.temp_grace", d.Cache.TempGrace)
	v.SetDefault("keys.max_text_chars", d.Keys.MaxTextChars)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("output.format", d.Output.Format)
	return v
}
