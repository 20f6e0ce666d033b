package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	LocalStore LocalStoreConfig
	Remote     RemoteConfig
	HTTP       HTTPConfig
	Storage    StorageConfig
	Telemetry  TelemetryConfig
	Orders     OrdersConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// LocalStoreConfig holds local snapshot store settings
type LocalStoreConfig struct {
	Path          string
	MaxBytes      int64
	FlushInterval time.Duration
	SeedDemoData  bool
}

// RemoteConfig holds remote store and change feed settings
type RemoteConfig struct {
	Enabled      bool
	ProbeTimeout time.Duration
	PushInterval time.Duration
	Database     DatabaseConfig
	Redis        RedisConfig
}

// DatabaseConfig holds remote database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

// DSN returns the database connection string with properly escaped
// values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig holds change feed connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// StorageConfig holds object storage settings for snapshot archive
// export
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Prefix    string
	UseSSL    bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	ExportInterval    time.Duration
}

// OrdersConfig holds order lifecycle settings
type OrdersConfig struct {
	TransitionPolicy string // permissive, strict
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STATION_ prefix (e.g., STATION_REMOTE_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("STATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		LocalStore: LocalStoreConfig{
			Path:          v.GetString("localstore.path"),
			MaxBytes:      v.GetInt64("localstore.max_bytes"),
			FlushInterval: v.GetDuration("localstore.flush_interval"),
			SeedDemoData:  v.GetBool("localstore.seed_demo_data"),
		},
		Remote: RemoteConfig{
			Enabled:      v.GetBool("remote.enabled"),
			ProbeTimeout: v.GetDuration("remote.probe_timeout"),
			PushInterval: v.GetDuration("remote.push_interval"),
			Database: DatabaseConfig{
				Host:            v.GetString("remote.database.host"),
				Port:            v.GetInt("remote.database.port"),
				User:            v.GetString("remote.database.user"),
				Password:        v.GetString("remote.database.password"),
				DBName:          v.GetString("remote.database.dbname"),
				SSLMode:         v.GetString("remote.database.sslmode"),
				MaxOpenConns:    v.GetInt("remote.database.max_open_conns"),
				MaxIdleConns:    v.GetInt("remote.database.max_idle_conns"),
				ConnMaxLifetime: v.GetInt("remote.database.conn_max_lifetime"),
			},
			Redis: RedisConfig{
				Host:     v.GetString("remote.redis.host"),
				Port:     v.GetInt("remote.redis.port"),
				Password: v.GetString("remote.redis.password"),
				DB:       v.GetInt("remote.redis.db"),
			},
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("storage.enabled"),
			Endpoint:  v.GetString("storage.endpoint"),
			Region:    v.GetString("storage.region"),
			Bucket:    v.GetString("storage.bucket"),
			AccessKey: v.GetString("storage.access_key"),
			SecretKey: v.GetString("storage.secret_key"),
			Prefix:    v.GetString("storage.prefix"),
			UseSSL:    v.GetBool("storage.use_ssl"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
		},
		Orders: OrdersConfig{
			TransitionPolicy: v.GetString("orders.transition_policy"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "station-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.LocalStore.Path == "" {
		cfg.LocalStore.Path = "station.db"
	}
	if cfg.LocalStore.MaxBytes == 0 {
		cfg.LocalStore.MaxBytes = 64 << 20 // 64MB
	}
	if cfg.LocalStore.FlushInterval == 0 {
		cfg.LocalStore.FlushInterval = 30 * time.Second
	}
	if cfg.Remote.ProbeTimeout == 0 {
		cfg.Remote.ProbeTimeout = 5 * time.Second
	}
	if cfg.Remote.PushInterval == 0 {
		cfg.Remote.PushInterval = time.Minute
	}
	if cfg.Remote.Database.Host == "" {
		cfg.Remote.Database.Host = "localhost"
	}
	if cfg.Remote.Database.Port == 0 {
		cfg.Remote.Database.Port = 5432
	}
	if cfg.Remote.Database.User == "" {
		cfg.Remote.Database.User = "postgres"
	}
	if cfg.Remote.Database.DBName == "" {
		cfg.Remote.Database.DBName = "station"
	}
	if cfg.Remote.Database.SSLMode == "" {
		cfg.Remote.Database.SSLMode = "disable"
	}
	if cfg.Remote.Database.MaxOpenConns == 0 {
		cfg.Remote.Database.MaxOpenConns = 25
	}
	if cfg.Remote.Database.MaxIdleConns == 0 {
		cfg.Remote.Database.MaxIdleConns = 5
	}
	if cfg.Remote.Database.ConnMaxLifetime == 0 {
		cfg.Remote.Database.ConnMaxLifetime = 60
	}
	if cfg.Remote.Redis.Host == "" {
		cfg.Remote.Redis.Host = "localhost"
	}
	if cfg.Remote.Redis.Port == 0 {
		cfg.Remote.Redis.Port = 6379
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	// CORS origins have no wildcard fallback. An empty list means no
	// cross-origin requests are allowed until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "snapshots"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "station-backend"
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
	}
	if cfg.Orders.TransitionPolicy == "" {
		cfg.Orders.TransitionPolicy = "permissive"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.LocalStore.MaxBytes <= 0 {
		return fmt.Errorf("localstore.max_bytes must be positive")
	}
	if c.Remote.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("remote.database.max_open_conns must be positive")
	}
	if c.Remote.Database.MaxIdleConns < 0 {
		return fmt.Errorf("remote.database.max_idle_conns cannot be negative")
	}
	if c.Remote.Database.MaxIdleConns > c.Remote.Database.MaxOpenConns {
		return fmt.Errorf("remote.database.max_idle_conns (%d) cannot exceed remote.database.max_open_conns (%d)",
			c.Remote.Database.MaxIdleConns, c.Remote.Database.MaxOpenConns)
	}

	switch c.Orders.TransitionPolicy {
	case "permissive", "strict":
	default:
		return fmt.Errorf("orders.transition_policy must be 'permissive' or 'strict', got %q", c.Orders.TransitionPolicy)
	}

	if c.App.Env == "production" {
		if c.Remote.Enabled && c.Remote.Database.Password == "" {
			return fmt.Errorf("remote.database.password is required in production")
		}
		if c.Remote.Enabled && c.Remote.Database.SSLMode == "disable" {
			return fmt.Errorf("remote.database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}
