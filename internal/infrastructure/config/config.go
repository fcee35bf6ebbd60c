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
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	WooCommerce WooCommerceConfig
	Sync        SyncConfig
	Cleanup     CleanupConfig
	Scheduler   SchedulerConfig
	Telemetry   TelemetryConfig
	Profiling   ProfilingConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
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
	ConnMaxIdleTime int // in minutes
	LogLevel        string
	SlowQuery       time.Duration // statements slower than this are logged at warn
	AutoMigrate     bool   // run SQL migrations on server startup
	MigrationsPath  string // directory holding the migration files
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	// AllowInMemoryFallback keeps the server running with process-local job locks when Redis is down
	AllowInMemoryFallback bool
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int
	TrustedProxies  []string

	// CORSAllowOrigins lists browser origins allowed to call the API; empty rejects cross-origin calls
	CORSAllowOrigins []string
}

// WooCommerceConfig holds the remote store connection settings
type WooCommerceConfig struct {
	BaseURL         string
	ConsumerKey     string
	ConsumerSecret  string
	APIVersion      string
	PerPage         int
	MaxPages        int
	TimeoutSeconds  int
	QueryStringAuth bool // send credentials as query parameters instead of basic auth
}

// SyncConfig holds reconciliation job settings
type SyncConfig struct {
	Enabled      bool
	Window       time.Duration // how far back orders are fetched
	CronSchedule string
}

// CleanupConfig holds retention sweep settings
type CleanupConfig struct {
	Enabled         bool
	RetentionMonths int
	CronSchedule    string
}

// SchedulerConfig holds job trigger settings
type SchedulerConfig struct {
	Enabled       bool
	CheckInterval time.Duration // how often triggers check the wall clock
	JobTimeout    time.Duration
	LockTTL       time.Duration
	HistorySize   int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool          // Whether to enable OpenTelemetry metrics export
	CollectorEndpoint string        // OTEL Collector endpoint (e.g., "localhost:4317")
	ServiceName       string        // Service name for metrics and traces
	Insecure          bool          // Use insecure (non-TLS) connection (development only)
	ExportInterval    time.Duration // Metric export interval
	SamplingRatio     float64       // Trace sampling ratio (0.0 to 1.0)
	LogsEnabled       bool          // Bridge zap logs to the collector
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	HTTPTraceEnabled  bool          // Enable gin request tracing (otelgin)
}

// ProfilingConfig holds Pyroscope continuous profiling configuration
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string   // e.g. "http://pyroscope:4040"
	ApplicationName   string   // defaults to telemetry.service_name
	BasicAuthUser     string   // optional, for hosted Pyroscope
	BasicAuthPassword string   // optional, for hosted Pyroscope
	ProfileTypes      []string // cpu, alloc_space, inuse_space, goroutines, mutex_count, ...
	SpanProfiles      bool     // link CPU profiles to trace spans
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MIRROR_ prefix (e.g., MIRROR_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/storemirror")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("MIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setBoolDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			LogLevel:        v.GetString("database.log_level"),
			SlowQuery:       v.GetDuration("database.slow_query"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
			MigrationsPath:  v.GetString("database.migrations_path"),
		},
		Redis: RedisConfig{
			Enabled:               v.GetBool("redis.enabled"),
			Host:                  v.GetString("redis.host"),
			Port:                  v.GetInt("redis.port"),
			Password:              v.GetString("redis.password"),
			DB:                    v.GetInt("redis.db"),
			AllowInMemoryFallback: v.GetBool("redis.allow_in_memory_fallback"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		},
		WooCommerce: WooCommerceConfig{
			BaseURL:         v.GetString("woocommerce.base_url"),
			ConsumerKey:     v.GetString("woocommerce.consumer_key"),
			ConsumerSecret:  v.GetString("woocommerce.consumer_secret"),
			APIVersion:      v.GetString("woocommerce.api_version"),
			PerPage:         v.GetInt("woocommerce.per_page"),
			MaxPages:        v.GetInt("woocommerce.max_pages"),
			TimeoutSeconds:  v.GetInt("woocommerce.timeout_seconds"),
			QueryStringAuth: v.GetBool("woocommerce.query_string_auth"),
		},
		Sync: SyncConfig{
			Enabled:      v.GetBool("sync.enabled"),
			Window:       v.GetDuration("sync.window"),
			CronSchedule: v.GetString("sync.cron_schedule"),
		},
		Cleanup: CleanupConfig{
			Enabled:         v.GetBool("cleanup.enabled"),
			RetentionMonths: v.GetInt("cleanup.retention_months"),
			CronSchedule:    v.GetString("cleanup.cron_schedule"),
		},
		Scheduler: SchedulerConfig{
			Enabled:       v.GetBool("scheduler.enabled"),
			CheckInterval: v.GetDuration("scheduler.check_interval"),
			JobTimeout:    v.GetDuration("scheduler.job_timeout"),
			LockTTL:       v.GetDuration("scheduler.lock_ttl"),
			HistorySize:   v.GetInt("scheduler.history_size"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			HTTPTraceEnabled:  v.GetBool("telemetry.http_trace_enabled"),
		},
		Profiling: ProfilingConfig{
			Enabled:           v.GetBool("profiling.enabled"),
			ServerAddress:     v.GetString("profiling.server_address"),
			ApplicationName:   v.GetString("profiling.application_name"),
			BasicAuthUser:     v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiling.basic_auth_password"),
			ProfileTypes:      v.GetStringSlice("profiling.profile_types"),
			SpanProfiles:      v.GetBool("profiling.span_profiles"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setBoolDefaults registers defaults for switches that are on unless disabled explicitly
func setBoolDefaults(v *viper.Viper) {
	v.SetDefault("sync.enabled", true)
	v.SetDefault("cleanup.enabled", true)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("redis.allow_in_memory_fallback", true)
	v.SetDefault("telemetry.sampling_ratio", 1.0)
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storemirror"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "storemirror"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowQuery <= 0 {
		cfg.Database.SlowQuery = 200 * time.Millisecond
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = "migrations"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
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
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.WooCommerce.APIVersion == "" {
		cfg.WooCommerce.APIVersion = "wc/v3"
	}
	if cfg.WooCommerce.PerPage == 0 {
		cfg.WooCommerce.PerPage = 100
	}
	if cfg.WooCommerce.MaxPages == 0 {
		cfg.WooCommerce.MaxPages = 10
	}
	if cfg.WooCommerce.TimeoutSeconds == 0 {
		cfg.WooCommerce.TimeoutSeconds = 30
	}
	if cfg.Sync.Window == 0 {
		cfg.Sync.Window = 30 * 24 * time.Hour
	}
	if cfg.Sync.CronSchedule == "" {
		cfg.Sync.CronSchedule = "0 12 * * *"
	}
	if cfg.Cleanup.RetentionMonths == 0 {
		cfg.Cleanup.RetentionMonths = 3
	}
	if cfg.Cleanup.CronSchedule == "" {
		cfg.Cleanup.CronSchedule = "0 1 * * *"
	}
	if cfg.Scheduler.CheckInterval == 0 {
		cfg.Scheduler.CheckInterval = time.Minute
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 30 * time.Minute
	}
	if cfg.Scheduler.LockTTL == 0 {
		cfg.Scheduler.LockTTL = time.Hour
	}
	if cfg.Scheduler.HistorySize == 0 {
		cfg.Scheduler.HistorySize = 50
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "storemirror"
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
	}
	if cfg.Profiling.ServerAddress == "" {
		cfg.Profiling.ServerAddress = "http://localhost:4040"
	}
	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = cfg.Telemetry.ServiceName
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"}
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.WooCommerce.BaseURL != "" {
		u, err := url.Parse(c.WooCommerce.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("woocommerce.base_url must be an absolute URL, got %q", c.WooCommerce.BaseURL)
		}
	}
	if c.WooCommerce.PerPage < 1 || c.WooCommerce.PerPage > 100 {
		return fmt.Errorf("woocommerce.per_page must be between 1 and 100, got %d", c.WooCommerce.PerPage)
	}
	if c.WooCommerce.MaxPages < 1 {
		return fmt.Errorf("woocommerce.max_pages must be positive")
	}
	if c.Sync.Window < 0 {
		return fmt.Errorf("sync.window cannot be negative")
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1, got %v", c.Telemetry.SamplingRatio)
	}
	if c.Cleanup.RetentionMonths < 0 {
		return fmt.Errorf("cleanup.retention_months cannot be negative")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Sync.Enabled {
			if c.WooCommerce.BaseURL == "" {
				return fmt.Errorf("woocommerce.base_url is required in production when sync is enabled")
			}
			if c.WooCommerce.ConsumerKey == "" || c.WooCommerce.ConsumerSecret == "" {
				return fmt.Errorf("woocommerce.consumer_key and woocommerce.consumer_secret are required in production")
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
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

// Addr returns the Redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
