package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samirrijal/looopone/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Geofence  GeofenceConfig  `mapstructure:"geofence"`
	Maps      MapsConfig      `mapstructure:"maps"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AdminToken   string `mapstructure:"admin_token"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// GeofenceConfig configures boundary fetching, caching, and the fallback shape.
type GeofenceConfig struct {
	PlaceQuery   string          `mapstructure:"place_query"`
	NominatimURL string          `mapstructure:"nominatim_url"`
	UserAgent    string          `mapstructure:"user_agent"`
	FetchTimeout int             `mapstructure:"fetch_timeout"` // seconds
	CacheKey     string          `mapstructure:"cache_key"`
	CacheTTL     int             `mapstructure:"cache_ttl"` // seconds
	Fallback     domain.Bounds   `mapstructure:"fallback"`
	DefaultPoint domain.GeoPoint `mapstructure:"default_point"`
}

// FetchTimeoutDuration returns FetchTimeout as a time.Duration.
func (g GeofenceConfig) FetchTimeoutDuration() time.Duration {
	return time.Duration(g.FetchTimeout) * time.Second
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (g GeofenceConfig) CacheTTLDuration() time.Duration {
	return time.Duration(g.CacheTTL) * time.Second
}

// MapsConfig carries the map-rendering API key handed to the dashboard UI.
type MapsConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.admin_token", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "looopone")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "looopone")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.prefix", "looopone:")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("geofence.place_query", "Balçova, İzmir, Türkiye")
	v.SetDefault("geofence.nominatim_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geofence.user_agent", "looopone-dashboard/1.0")
	v.SetDefault("geofence.fetch_timeout", 10)
	v.SetDefault("geofence.cache_key", "balcova_boundary_polygon")
	v.SetDefault("geofence.cache_ttl", 86400)
	v.SetDefault("geofence.fallback.min_lat", 38.370)
	v.SetDefault("geofence.fallback.max_lat", 38.420)
	v.SetDefault("geofence.fallback.min_lon", 27.020)
	v.SetDefault("geofence.fallback.max_lon", 27.080)
	v.SetDefault("geofence.default_point.lat", 38.3894)
	v.SetDefault("geofence.default_point.lon", 27.0461)
	v.SetDefault("maps.api_key", "")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "report-triage")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: LOOOPONE_GEOFENCE_CACHE_TTL → geofence.cache_ttl
	v.SetEnvPrefix("LOOOPONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	g := c.Geofence
	if g.PlaceQuery == "" {
		errs = append(errs, "geofence.place_query is required")
	}
	if g.NominatimURL == "" {
		errs = append(errs, "geofence.nominatim_url is required")
	}
	if g.FetchTimeout <= 0 {
		errs = append(errs, "geofence.fetch_timeout must be positive")
	}
	if g.CacheTTL <= 0 {
		errs = append(errs, "geofence.cache_ttl must be positive")
	}
	if g.Fallback.MinLat >= g.Fallback.MaxLat || g.Fallback.MinLon >= g.Fallback.MaxLon {
		errs = append(errs, "geofence.fallback must have min < max on both axes")
	}
	if !g.DefaultPoint.Valid() || !g.Fallback.Contains(g.DefaultPoint) {
		errs = append(errs, "geofence.default_point must lie inside geofence.fallback")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
