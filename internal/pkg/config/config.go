package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samirrijal/ankyra/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Map       MapConfig       `mapstructure:"map"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	AllowOrigins   string `mapstructure:"allow_origins"`
	WSPingInterval int    `mapstructure:"ws_ping_interval"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
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
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	OTLPAddr    string  `mapstructure:"otlp_addr"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	Enabled     bool    `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// MapConfig describes the loaded map image and the measuring rules.
type MapConfig struct {
	Name              string  `mapstructure:"name"`
	ImageURL          string  `mapstructure:"image_url"`
	Width             float64 `mapstructure:"width"`
	Height            float64 `mapstructure:"height"`
	KmPerPixel        float64 `mapstructure:"km_per_pixel"`
	MinZoom           float64 `mapstructure:"min_zoom"`
	MaxZoom           float64 `mapstructure:"max_zoom"`
	MinGesturePixels  float64 `mapstructure:"min_gesture_pixels"`
	MaxFreeDrawPoints int     `mapstructure:"max_free_draw_points"`
	DefaultProfile    string  `mapstructure:"default_profile"`
	DataDir           string  `mapstructure:"data_dir"`
}

// Bounds returns the map bounds described by the config.
func (m MapConfig) Bounds() domain.MapBounds {
	return domain.NewMapBounds(m.Width, m.Height, m.KmPerPixel)
}

// Profile returns the configured default travel profile.
func (m MapConfig) Profile() domain.TravelProfile {
	p, err := domain.ParseTravelProfile(m.DefaultProfile)
	if err != nil {
		return domain.DefaultProfile
	}
	return p
}

// Load reads configuration from .env, file and environment variables.
func Load(service string) (*Config, error) {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.allow_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("server.ws_ping_interval", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "ankyra")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "ankyra")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "localhost:4317")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "ankyra-layer-import")
	v.SetDefault("map.name", "Ankyra")
	v.SetDefault("map.image_url", "/assets/ankyra-map.jpg")
	v.SetDefault("map.width", 2274)
	v.SetDefault("map.height", 1700)
	v.SetDefault("map.km_per_pixel", 0.2871)
	v.SetDefault("map.min_zoom", -2)
	v.SetDefault("map.max_zoom", 2)
	v.SetDefault("map.min_gesture_pixels", domain.MinGesturePixels)
	v.SetDefault("map.max_free_draw_points", domain.MaxFreeDrawPoints)
	v.SetDefault("map.default_profile", domain.DefaultProfile.Name)
	v.SetDefault("map.data_dir", "data")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: ANKYRA_MAP_KM_PER_PIXEL → map.km_per_pixel
	v.SetEnvPrefix("ANKYRA")
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
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.WSPingInterval <= 0 {
		errs = append(errs, "server.ws_ping_interval must be positive")
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
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPAddr == "" {
		errs = append(errs, "telemetry.otlp_addr is required when telemetry is enabled")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}
	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		errs = append(errs, fmt.Sprintf("map.width and map.height must be positive, got %gx%g", c.Map.Width, c.Map.Height))
	}
	if c.Map.KmPerPixel <= 0 {
		errs = append(errs, fmt.Sprintf("map.km_per_pixel must be positive, got %g", c.Map.KmPerPixel))
	}
	if c.Map.MinGesturePixels < 0 {
		errs = append(errs, "map.min_gesture_pixels must not be negative")
	}
	if c.Map.MaxFreeDrawPoints < 2 {
		errs = append(errs, fmt.Sprintf("map.max_free_draw_points must be at least 2, got %d", c.Map.MaxFreeDrawPoints))
	}
	if c.Map.MinZoom > c.Map.MaxZoom {
		errs = append(errs, "map.min_zoom must not exceed map.max_zoom")
	}
	if _, err := domain.ParseTravelProfile(c.Map.DefaultProfile); err != nil {
		errs = append(errs, fmt.Sprintf("map.default_profile: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
