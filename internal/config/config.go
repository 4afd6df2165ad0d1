// Package config loads vppmon settings from defaults, an optional
// config.yaml, VPPMON_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/zuoanCo/visual-modal/internal/boundary"
)

// Config holds all application configuration.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Boundary BoundaryConfig `mapstructure:"boundary"`
	Valkey   ValkeyConfig   `mapstructure:"valkey"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Scene    SceneConfig    `mapstructure:"scene"`
	Simulate SimulateConfig `mapstructure:"simulate"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type HTTPConfig struct {
	Addr       string `mapstructure:"addr"`
	TrustProxy bool   `mapstructure:"trust_proxy"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

type BoundaryConfig struct {
	WorldURL     string `mapstructure:"world_url"`
	ChinaURL     string `mapstructure:"china_url"`
	CacheDir     string `mapstructure:"cache_dir"`
	MaxFiles     int    `mapstructure:"max_files"`
	FetchEnabled bool   `mapstructure:"fetch_enabled"`
}

// ValkeyConfig enables the shared boundary cache when Addr is set.
type ValkeyConfig struct {
	Addr string        `mapstructure:"addr"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// NATSConfig enables widget publishing when URL is set.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type StreamConfig struct {
	MaxConcurrentPerIP int           `mapstructure:"max_concurrent_per_ip"`
	MaxTotal           int           `mapstructure:"max_total"`
	BandwidthLimit     int           `mapstructure:"bandwidth_limit"`
	KeepaliveInterval  time.Duration `mapstructure:"keepalive_interval"`
}

type SceneConfig struct {
	EarthRadius     float64       `mapstructure:"earth_radius"`
	ArcResolution   int           `mapstructure:"arc_resolution"`
	PacketSpeed     float64       `mapstructure:"packet_speed"`
	WorldStride     int           `mapstructure:"world_stride"`
	ChinaStride     int           `mapstructure:"china_stride"`
	ChinaOffset     float64       `mapstructure:"china_offset"`
	StarCount       int           `mapstructure:"star_count"`
	Workers         int           `mapstructure:"workers"`
	RebuildInterval time.Duration `mapstructure:"rebuild_interval"`
}

type SimulateConfig struct {
	Seed int64 `mapstructure:"seed"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	ServiceName string  `mapstructure:"service_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.trust_proxy", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token", "")
	v.SetDefault("boundary.world_url", boundary.DefaultWorldURL)
	v.SetDefault("boundary.china_url", boundary.DefaultChinaURL)
	v.SetDefault("boundary.cache_dir", "/tmp/vppmon/boundary")
	v.SetDefault("boundary.max_files", 3)
	v.SetDefault("boundary.fetch_enabled", true)
	v.SetDefault("valkey.addr", "")
	v.SetDefault("valkey.ttl", 24*time.Hour)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "vpp.metrics")
	v.SetDefault("stream.max_concurrent_per_ip", 10)
	v.SetDefault("stream.max_total", 1000)
	v.SetDefault("stream.bandwidth_limit", 1048576)
	v.SetDefault("stream.keepalive_interval", 30*time.Second)
	v.SetDefault("scene.earth_radius", 30.0)
	v.SetDefault("scene.arc_resolution", 50)
	v.SetDefault("scene.packet_speed", 0.5)
	v.SetDefault("scene.world_stride", 1)
	v.SetDefault("scene.china_stride", 5)
	v.SetDefault("scene.china_offset", 0.05)
	v.SetDefault("scene.star_count", 5000)
	v.SetDefault("scene.workers", 0)
	v.SetDefault("scene.rebuild_interval", 10*time.Second)
	v.SetDefault("simulate.seed", 0)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.service_name", "vppmon")
}

// Flags returns the command-line flags understood by Load. Each flag
// overrides the config key of the same name with dashes for dots.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("vppmon", pflag.ContinueOnError)
	fs.String("config", "", "path to a config file (default: ./config.yaml or ./configs/config.yaml)")
	fs.String("http-addr", ":8080", "HTTP listen address")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-format", "json", "log format: json or text")
	fs.Bool("boundary-fetch-enabled", true, "fetch boundary documents from their remote sources")
	fs.String("boundary-cache-dir", "/tmp/vppmon/boundary", "directory for cached boundary documents")
	fs.String("valkey-addr", "", "valkey address for the shared boundary cache")
	fs.String("nats-url", "", "NATS server URL for widget publishing")
	fs.Int64("simulate-seed", 0, "random seed for the simulated widgets (0 = time based)")
	fs.Bool("tracing-enabled", false, "enable OpenTelemetry tracing")
	return fs
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"http-addr":              "http.addr",
	"log-level":              "log.level",
	"log-format":             "log.format",
	"boundary-fetch-enabled": "boundary.fetch_enabled",
	"boundary-cache-dir":     "boundary.cache_dir",
	"valkey-addr":            "valkey.addr",
	"nats-url":               "nats.url",
	"simulate-seed":          "simulate.seed",
	"tracing-enabled":        "tracing.enabled",
}

// Load reads configuration. fs may be nil; when set it must already be
// parsed, and only flags the user changed take precedence.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	configFile := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}

	// Config file (optional unless named explicitly)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables: VPPMON_BOUNDARY_WORLD_URL → boundary.world_url
	v.SetEnvPrefix("VPPMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.HTTP.Addr == "" {
		errs = append(errs, "http.addr is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		errs = append(errs, "auth.token is required when auth is enabled")
	}
	if c.Boundary.FetchEnabled && (c.Boundary.WorldURL == "" || c.Boundary.ChinaURL == "") {
		errs = append(errs, "boundary.world_url and boundary.china_url are required when fetching is enabled")
	}
	if c.Boundary.MaxFiles < 1 {
		errs = append(errs, fmt.Sprintf("boundary.max_files must be positive, got %d", c.Boundary.MaxFiles))
	}
	if c.Valkey.Addr != "" && c.Valkey.TTL < 0 {
		errs = append(errs, "valkey.ttl must not be negative")
	}
	if c.Stream.MaxConcurrentPerIP < 1 {
		errs = append(errs, "stream.max_concurrent_per_ip must be positive")
	}
	if c.Stream.MaxTotal < c.Stream.MaxConcurrentPerIP {
		errs = append(errs, "stream.max_total must be at least stream.max_concurrent_per_ip")
	}
	if c.Stream.BandwidthLimit < 1 {
		errs = append(errs, "stream.bandwidth_limit must be positive")
	}
	if c.Stream.KeepaliveInterval < time.Second {
		errs = append(errs, "stream.keepalive_interval must be at least 1s")
	}
	if c.Scene.EarthRadius <= 0 {
		errs = append(errs, "scene.earth_radius must be positive")
	}
	if c.Scene.ArcResolution < 1 {
		errs = append(errs, "scene.arc_resolution must be positive")
	}
	if c.Scene.PacketSpeed <= 0 {
		errs = append(errs, "scene.packet_speed must be positive")
	}
	if c.Scene.WorldStride < 1 || c.Scene.ChinaStride < 1 {
		errs = append(errs, "scene.world_stride and scene.china_stride must be positive")
	}
	if c.Scene.StarCount < 0 {
		errs = append(errs, "scene.star_count must not be negative")
	}
	if c.Scene.Workers < 0 {
		errs = append(errs, "scene.workers must not be negative")
	}
	if c.Scene.RebuildInterval < time.Second {
		errs = append(errs, "scene.rebuild_interval must be at least 1s")
	}
	if c.Tracing.Enabled {
		switch c.Tracing.Exporter {
		case "stdout", "otlp":
		default:
			errs = append(errs, fmt.Sprintf("tracing.exporter must be stdout or otlp, got %q", c.Tracing.Exporter))
		}
		if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
			errs = append(errs, "tracing.sample_ratio must be within [0, 1]")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
