// Package config loads fplugin settings.
//
// Precedence, lowest to highest: built-in defaults, the TOML config file
// (<base_dir>/config.toml unless a path is given), FPLUGIN_* environment
// variables (FPLUGIN_SHELL_TIMEOUT=30s sets shell.timeout), then any command
// flags bound to the returned viper instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jward/fplugin/internal/cache"
	"github.com/jward/fplugin/internal/filter"
	"github.com/jward/fplugin/internal/repo"
)

// ConfigFileName is looked up in the base directory when no file is given.
const ConfigFileName = "config.toml"

// Tagger engines.
const (
	TaggerCtags   = "ctags"
	TaggerBuiltin = "builtin"
)

// Config is the complete fplugin configuration.
type Config struct {
	BaseDir string      `mapstructure:"base_dir"`
	Root    RootConfig  `mapstructure:"root"`
	Cache   CacheConfig `mapstructure:"cache"`
	Index   IndexConfig `mapstructure:"index"`
	Tools   ToolsConfig `mapstructure:"tools"`
	Shell   ShellConfig `mapstructure:"shell"`
	Log     LogConfig   `mapstructure:"log"`
}

// RootConfig controls repository root discovery.
type RootConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

// CacheConfig controls cache directory naming.
type CacheConfig struct {
	KeyLength int `mapstructure:"key_length"`
}

// IndexConfig controls index builds.
type IndexConfig struct {
	Extensions     []string `mapstructure:"extensions"`
	Parallel       bool     `mapstructure:"parallel"`
	Tagger         string   `mapstructure:"tagger"`
	CscopeInverted bool     `mapstructure:"cscope_inverted"`
}

// ToolsConfig names the external binaries.
type ToolsConfig struct {
	Git    string `mapstructure:"git"`
	Ctags  string `mapstructure:"ctags"`
	Cscope string `mapstructure:"cscope"`
}

// ShellConfig controls the interactive shell. An empty Program selects the
// platform shell.
type ShellConfig struct {
	Program string        `mapstructure:"program"`
	Flag    string        `mapstructure:"flag"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance with defaults and environment binding set
// up. Callers may bind flags onto it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FPLUGIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	baseDir, err := cache.DefaultBaseDir()
	if err != nil {
		baseDir = cache.BaseDirName
	}
	v.SetDefault("base_dir", baseDir)
	v.SetDefault("root.max_depth", repo.DefaultMaxDepth)
	v.SetDefault("cache.key_length", cache.KeyLength)
	v.SetDefault("index.extensions", filter.DefaultExtensions)
	v.SetDefault("index.parallel", true)
	v.SetDefault("index.tagger", TaggerCtags)
	v.SetDefault("index.cscope_inverted", false)
	v.SetDefault("tools.git", "git")
	v.SetDefault("tools.ctags", "ctags")
	v.SetDefault("tools.cscope", "cscope")
	v.SetDefault("shell.program", "")
	v.SetDefault("shell.flag", "")
	v.SetDefault("shell.timeout", 10*time.Second)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
}

// Load reads the config file into v and returns the validated Config.
// configFile may be empty, in which case <base_dir>/config.toml is read if
// it exists. An explicitly named file must exist.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile == "" {
		candidate := filepath.Join(expandHome(v.GetString("base_dir")), ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.BaseDir = expandHome(cfg.BaseDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in defaults, ignoring config files and the
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: decoding defaults: %v", err))
	}
	cfg.BaseDir = expandHome(cfg.BaseDir)
	return &cfg
}

// Validate checks values that would otherwise fail deep inside an operation.
func (c *Config) Validate() error {
	var errs []error
	if c.BaseDir == "" {
		errs = append(errs, &ConfigError{Field: "base_dir", Message: "must not be empty"})
	}
	if c.Root.MaxDepth <= 0 {
		errs = append(errs, &ConfigError{Field: "root.max_depth", Message: "must be positive"})
	}
	if c.Cache.KeyLength < 1 || c.Cache.KeyLength > 56 {
		errs = append(errs, &ConfigError{Field: "cache.key_length", Message: "must be between 1 and 56"})
	}
	if filter.New(c.Index.Extensions...).Len() == 0 {
		errs = append(errs, &ConfigError{Field: "index.extensions", Message: "must name at least one extension"})
	}
	switch c.Index.Tagger {
	case TaggerCtags, TaggerBuiltin:
	default:
		errs = append(errs, &ConfigError{Field: "index.tagger", Message: fmt.Sprintf("unknown tagger %q", c.Index.Tagger)})
	}
	if c.Shell.Timeout <= 0 {
		errs = append(errs, &ConfigError{Field: "shell.timeout", Message: "must be positive"})
	}
	return errors.Join(errs...)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
