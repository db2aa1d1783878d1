package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/jacksakers/ProjectReflect/internal/assets"
	"github.com/jacksakers/ProjectReflect/internal/core"
	"github.com/jacksakers/ProjectReflect/internal/garden"
)

// EnvPrefix is prepended to every environment override, e.g. REFLECT_USER.
const EnvPrefix = "REFLECT"

// DefaultUser owns entries when no user is configured.
const DefaultUser = "local"

// GardenConfig tunes point awards and bloom thresholds.
type GardenConfig struct {
	DefaultPointsToBloom int `mapstructure:"default_points_to_bloom" toml:"default_points_to_bloom"`
	QuickThoughtPoints   int `mapstructure:"quick_thought_points" toml:"quick_thought_points"`
	ReflectionPoints     int `mapstructure:"reflection_points" toml:"reflection_points"`
}

// AssetsConfig locates plant images and controls signed URLs.
type AssetsConfig struct {
	Root       string `mapstructure:"root" toml:"root,omitempty"`
	Prefix     string `mapstructure:"prefix" toml:"prefix"`
	BaseURL    string `mapstructure:"base_url" toml:"base_url,omitempty"`
	SigningKey string `mapstructure:"signing_key" toml:"signing_key,omitempty"`
	URLTTL     string `mapstructure:"url_ttl" toml:"url_ttl"`
}

// Config holds user-configurable settings. Values come from the config file,
// REFLECT_* environment variables and CLI flags, in increasing precedence.
type Config struct {
	DBPath string       `mapstructure:"db_path" toml:"db_path,omitempty"`
	User   string       `mapstructure:"user" toml:"user"`
	Editor string       `mapstructure:"editor" toml:"editor,omitempty"`
	Garden GardenConfig `mapstructure:"garden" toml:"garden"`
	Assets AssetsConfig `mapstructure:"assets" toml:"assets"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		User: DefaultUser,
		Garden: GardenConfig{
			DefaultPointsToBloom: garden.DefaultPointsToBloom,
			QuickThoughtPoints:   core.QuickThoughtPoints,
			ReflectionPoints:     core.ReflectionPoints,
		},
		Assets: AssetsConfig{
			Prefix: garden.DefaultImagePrefix,
			URLTTL: assets.DefaultURLTTL.String(),
		},
	}
}

// ConfigPath returns the location of the config file.
func ConfigPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "reflect", "config.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config path: %w", err)
	}
	return filepath.Join(home, ".config", "reflect", "config.toml"), nil
}

// New returns a viper instance with defaults and environment overrides bound.
func New() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("user", d.User)
	v.SetDefault("editor", d.Editor)
	v.SetDefault("garden.default_points_to_bloom", d.Garden.DefaultPointsToBloom)
	v.SetDefault("garden.quick_thought_points", d.Garden.QuickThoughtPoints)
	v.SetDefault("garden.reflection_points", d.Garden.ReflectionPoints)
	v.SetDefault("assets.root", d.Assets.Root)
	v.SetDefault("assets.prefix", d.Assets.Prefix)
	v.SetDefault("assets.base_url", d.Assets.BaseURL)
	v.SetDefault("assets.signing_key", d.Assets.SigningKey)
	v.SetDefault("assets.url_ttl", d.Assets.URLTTL)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges the config file at path into v. An empty path uses
// ConfigPath. A missing default file is not an error; a missing explicit
// file is.
func ReadFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes v into a normalized Config.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}
	return Normalize(cfg), nil
}

// Save writes configuration to path as TOML. An empty path uses ConfigPath.
func Save(path string, cfg Config) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg = Normalize(cfg)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Normalize ensures defaults are set and invalid values are sanitized.
func Normalize(cfg Config) Config {
	d := Default()

	cfg.DBPath = strings.TrimSpace(cfg.DBPath)
	cfg.Editor = strings.TrimSpace(cfg.Editor)
	cfg.User = strings.TrimSpace(cfg.User)
	if cfg.User == "" {
		cfg.User = d.User
	}

	if cfg.Garden.DefaultPointsToBloom <= 0 {
		cfg.Garden.DefaultPointsToBloom = d.Garden.DefaultPointsToBloom
	}
	if cfg.Garden.QuickThoughtPoints <= 0 {
		cfg.Garden.QuickThoughtPoints = d.Garden.QuickThoughtPoints
	}
	if cfg.Garden.ReflectionPoints <= 0 {
		cfg.Garden.ReflectionPoints = d.Garden.ReflectionPoints
	}

	cfg.Assets.Root = strings.TrimSpace(cfg.Assets.Root)
	cfg.Assets.BaseURL = strings.TrimSpace(cfg.Assets.BaseURL)
	cfg.Assets.Prefix = strings.Trim(strings.TrimSpace(cfg.Assets.Prefix), "/")
	if cfg.Assets.Prefix == "" {
		cfg.Assets.Prefix = d.Assets.Prefix
	}
	cfg.Assets.URLTTL = strings.TrimSpace(cfg.Assets.URLTTL)
	if ttl, err := time.ParseDuration(cfg.Assets.URLTTL); err != nil || ttl <= 0 {
		cfg.Assets.URLTTL = d.Assets.URLTTL
	}
	return cfg
}

// URLTTL returns the parsed signed URL lifetime, falling back to assets.DefaultURLTTL.
func URLTTL(cfg Config) time.Duration {
	cfg = Normalize(cfg)
	d, err := time.ParseDuration(cfg.Assets.URLTTL)
	if err != nil {
		return assets.DefaultURLTTL
	}
	return d
}
