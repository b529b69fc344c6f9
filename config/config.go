// Package config loads service settings from defaults, an optional config
// file, a .env file, TRACKLY_* environment variables and command line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "TRACKLY"

type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Events    EventsConfig    `mapstructure:"events"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Files     FilesConfig     `mapstructure:"files"`
	Log       LogConfig       `mapstructure:"log"`
	OTel      OTelConfig      `mapstructure:"otel"`

	v *viper.Viper
}

type ServiceConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	LoginRateLimit  int           `mapstructure:"login_rate_limit"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	BcryptCost      int           `mapstructure:"bcrypt_cost"`
	IdentityCache   int           `mapstructure:"identity_cache"`
}

type EventsConfig struct {
	QueueSize         int           `mapstructure:"queue_size"`
	RelayBuffer       int           `mapstructure:"relay_buffer"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	PollTimeout       time.Duration `mapstructure:"poll_timeout"`
	Export            ExportConfig  `mapstructure:"export"`
}

// ExportConfig controls re-publishing of issue events to RabbitMQ.
// Export is off while AMQPURL is empty.
type ExportConfig struct {
	AMQPURL        string        `mapstructure:"amqp_url"`
	Exchange       string        `mapstructure:"exchange"`
	BreakerTimeout time.Duration `mapstructure:"breaker_timeout"`
}

func (e ExportConfig) Enabled() bool { return e.AMQPURL != "" }

type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// IntervalMinutes also reads STATS_AGGREGATION_INTERVAL_MINUTES.
	IntervalMinutes int           `mapstructure:"interval_minutes"`
	RunTimeout      time.Duration `mapstructure:"run_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s SchedulerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

type FilesConfig struct {
	Root    string `mapstructure:"root"`
	MaxSize int64  `mapstructure:"max_size"`
	BaseURL string `mapstructure:"base_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type OTelConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Headers  string `mapstructure:"headers"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "trackly-api")
	v.SetDefault("service.env", "development")

	v.SetDefault("http.addr", ":8000")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 2*time.Minute)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.cors_origins", []string{"*"})
	v.SetDefault("http.login_rate_limit", 10)

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "file:trackly.db?_foreign_keys=on")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("auth.access_token_ttl", 30*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.identity_cache", 10000)

	v.SetDefault("events.queue_size", 256)
	v.SetDefault("events.relay_buffer", 2048)
	v.SetDefault("events.heartbeat_interval", 30*time.Second)
	v.SetDefault("events.poll_timeout", 30*time.Second)
	v.SetDefault("events.export.exchange", "trackly.events")
	v.SetDefault("events.export.breaker_timeout", 30*time.Second)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval_minutes", 30)
	v.SetDefault("scheduler.run_timeout", 2*time.Minute)
	v.SetDefault("scheduler.shutdown_timeout", 15*time.Second)

	v.SetDefault("files.root", "./uploads")
	v.SetDefault("files.max_size", 50*1024*1024)
	v.SetDefault("files.base_url", "/api/files")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Flags declares the command line overrides understood by LoadConfig.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("trackly", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.String("config_file", "", "Path to the configuration file")
	fs.String("http.addr", "", "HTTP listen address")
	fs.String("database.driver", "", "Database driver: pgx or sqlite3")
	fs.String("database.dsn", "", "Database connection string")
	fs.String("log.level", "", "Log level: debug, info, warn, error")
	fs.Int("scheduler.interval_minutes", 0, "Statistics aggregation interval in minutes")
	return fs
}

// LoadConfig builds the configuration. args are raw command line arguments;
// flags the set does not know are ignored.
func LoadConfig(args []string) (*Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Variable names kept from earlier deployments.
	_ = v.BindEnv("scheduler.interval_minutes", EnvPrefix+"_SCHEDULER_INTERVAL_MINUTES", "STATS_AGGREGATION_INTERVAL_MINUTES")
	_ = v.BindEnv("database.dsn", EnvPrefix+"_DATABASE_DSN", "DATABASE_URL")
	_ = v.BindEnv("auth.jwt_secret", EnvPrefix+"_AUTH_JWT_SECRET", "SECRET_KEY")

	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: parse flags: %w", err)
	}
	// Only flags set explicitly override lower layers.
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed && f.Name != "config_file" {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	if path, _ := fs.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{v: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks fields that have no safe default.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	switch c.Database.Driver {
	case "pgx", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.Events.QueueSize <= 0 {
		errs = append(errs, errors.New("events.queue_size must be positive"))
	}
	if c.Events.HeartbeatInterval <= 0 {
		errs = append(errs, errors.New("events.heartbeat_interval must be positive"))
	}
	if c.Files.MaxSize <= 0 {
		errs = append(errs, errors.New("files.max_size must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction reports whether service.env is "production".
func (c *Config) IsProduction() bool { return c.Service.Env == "production" }

// OnChange watches the config file and calls fn with the reloaded settings.
// It does nothing when no config file was loaded.
func (c *Config) OnChange(fn func(*Config)) {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return
	}
	c.v.OnConfigChange(func(fsnotify.Event) {
		next := &Config{v: c.v}
		if err := c.v.Unmarshal(next); err != nil {
			return
		}
		fn(next)
	})
	c.v.WatchConfig()
}
