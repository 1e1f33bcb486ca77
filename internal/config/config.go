package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/JosineyJr/switch_router/internal/structs"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SWITCHROUTER"

const (
	DispatchModeSimulate = "simulate"
	DispatchModeHTTP     = "http"

	StoreDriverMemory = "memory"
	StoreDriverRedis  = "redis"
)

type Config struct {
	Server   ServerConfig     `mapstructure:"server" yaml:"server"`
	Log      LogConfig        `mapstructure:"log" yaml:"log"`
	Switches []structs.Switch `mapstructure:"switches" yaml:"switches"`
	Health   HealthConfig     `mapstructure:"health" yaml:"health"`
	Dispatch DispatchConfig   `mapstructure:"dispatch" yaml:"dispatch"`
	Store    StoreConfig      `mapstructure:"store" yaml:"store"`
	Metrics  MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type DispatchConfig struct {
	Mode    string        `mapstructure:"mode" yaml:"mode"`
	Path    string        `mapstructure:"path" yaml:"path"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type StoreConfig struct {
	Driver        string        `mapstructure:"driver" yaml:"driver"`
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password,omitempty"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
	KeyPrefix     string        `mapstructure:"key_prefix" yaml:"key_prefix"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type MetricsConfig struct {
	InfluxURL    string `mapstructure:"influx_url" yaml:"influx_url"`
	InfluxToken  string `mapstructure:"influx_token" yaml:"influx_token,omitempty"`
	InfluxOrg    string `mapstructure:"influx_org" yaml:"influx_org"`
	InfluxBucket string `mapstructure:"influx_bucket" yaml:"influx_bucket"`
}

func (m MetricsConfig) Enabled() bool {
	return m.InfluxURL != ""
}

// Load reads defaults, then the optional YAML file at path, then
// SWITCHROUTER_* environment variables (a .env file in the working directory
// is loaded first if present).
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("switches", d.Switches)
	v.SetDefault("health.interval", d.Health.Interval)
	v.SetDefault("health.timeout", d.Health.Timeout)
	v.SetDefault("dispatch.mode", d.Dispatch.Mode)
	v.SetDefault("dispatch.path", d.Dispatch.Path)
	v.SetDefault("dispatch.timeout", d.Dispatch.Timeout)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.redis_addr", d.Store.RedisAddr)
	v.SetDefault("store.redis_password", d.Store.RedisPassword)
	v.SetDefault("store.redis_db", d.Store.RedisDB)
	v.SetDefault("store.key_prefix", d.Store.KeyPrefix)
	v.SetDefault("store.ttl", d.Store.TTL)
	v.SetDefault("metrics.influx_url", d.Metrics.InfluxURL)
	v.SetDefault("metrics.influx_token", d.Metrics.InfluxToken)
	v.SetDefault("metrics.influx_org", d.Metrics.InfluxOrg)
	v.SetDefault("metrics.influx_bucket", d.Metrics.InfluxBucket)
}

func (c *Config) Validate() error {
	if len(c.Switches) == 0 {
		return errors.New("at least one switch must be configured")
	}

	seen := make(map[string]struct{}, len(c.Switches))
	for _, sw := range c.Switches {
		if sw.EndpointURL == "" {
			return errors.New("switch url must not be empty")
		}
		if _, ok := seen[sw.EndpointURL]; ok {
			return fmt.Errorf("switch %s is configured twice", sw.EndpointURL)
		}
		seen[sw.EndpointURL] = struct{}{}
	}

	if c.Health.Interval <= 0 || c.Health.Timeout <= 0 {
		return errors.New("health interval and timeout must be positive")
	}

	if c.Dispatch.Timeout <= 0 {
		return errors.New("dispatch timeout must be positive")
	}

	switch c.Dispatch.Mode {
	case DispatchModeSimulate, DispatchModeHTTP:
	default:
		return fmt.Errorf("unknown dispatch mode %q", c.Dispatch.Mode)
	}

	switch c.Store.Driver {
	case StoreDriverMemory:
	case StoreDriverRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	return nil
}

func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
