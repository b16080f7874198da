package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/milechy/ultra-autotrade-project/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Server     ServerConfig     `mapstructure:"server"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Reporting  ReportingConfig  `mapstructure:"reporting"`
	Alerting   AlertingConfig   `mapstructure:"alerting"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Backup     BackupConfig     `mapstructure:"backup"`
	Export     ExportConfig     `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig governs the HTTP dashboard API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MonitoringConfig holds safety-gate thresholds and history capacities.
// Decimal thresholds are carried as strings so they parse exactly instead of
// passing through binary floating point.
type MonitoringConfig struct {
	LatencyWarningThreshold time.Duration `mapstructure:"latency_warning_threshold"`
	LatencyAlertThreshold   time.Duration `mapstructure:"latency_alert_threshold"`
	HFWarningThreshold      string        `mapstructure:"hf_warning_threshold"`
	HFEmergencyThreshold    string        `mapstructure:"hf_emergency_threshold"`
	PriceChangeAlertPct     string        `mapstructure:"price_change_alert_pct"`
	MaxEvents               int           `mapstructure:"max_events"`
	MaxLatencyRecords       int           `mapstructure:"max_latency_records"`
	MaxTradeRecords         int           `mapstructure:"max_trade_records"`
	MaxHealthFactorRecords  int           `mapstructure:"max_health_factor_records"`
}

// ReportingConfig drives the scheduled summary jobs.
type ReportingConfig struct {
	DailyEnabled  bool          `mapstructure:"daily_enabled"`
	WeeklyEnabled bool          `mapstructure:"weekly_enabled"`
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
	NotableEvents int           `mapstructure:"notable_events"`
}

// AlertingConfig defines notification routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Channels []string       `mapstructure:"channels"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram sender.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// DatabaseConfig encapsulates the optional PostgreSQL event archive.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ArchiveBuffer   int           `mapstructure:"archive_buffer"`
	Retention       time.Duration `mapstructure:"retention"`
}

// BackupConfig controls the post-report data backup run.
type BackupConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Dir     string        `mapstructure:"dir"`
	Window  time.Duration `mapstructure:"window"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AUTOTRADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "autotrade-monitor")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("monitoring.latency_warning_threshold", "10s")
	v.SetDefault("monitoring.latency_alert_threshold", "30s")
	v.SetDefault("monitoring.hf_warning_threshold", "1.8")
	v.SetDefault("monitoring.hf_emergency_threshold", "1.6")
	v.SetDefault("monitoring.price_change_alert_pct", "20")
	v.SetDefault("monitoring.max_events", 1000)
	v.SetDefault("monitoring.max_latency_records", 1000)
	v.SetDefault("monitoring.max_trade_records", 1000)
	v.SetDefault("monitoring.max_health_factor_records", 1000)

	v.SetDefault("reporting.daily_enabled", true)
	v.SetDefault("reporting.weekly_enabled", false)
	v.SetDefault("reporting.interval", "24h")
	v.SetDefault("reporting.align_to_bucket", true)
	v.SetDefault("reporting.startup_delay", "0s")
	v.SetDefault("reporting.notable_events", 20)

	v.SetDefault("alerting.enabled", true)
	v.SetDefault("alerting.channels", []string{"internal_log"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.archive_buffer", 256)
	v.SetDefault("database.retention", "720h")

	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.window", "24h")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Monitoring.LatencyWarningThreshold <= 0 {
		return fmt.Errorf("monitoring.latency_warning_threshold must be greater than zero")
	}
	if c.Monitoring.LatencyAlertThreshold <= c.Monitoring.LatencyWarningThreshold {
		return fmt.Errorf("monitoring.latency_alert_threshold must exceed the warning threshold")
	}
	if c.Reporting.Interval <= 0 {
		return fmt.Errorf("reporting.interval must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Backup.Enabled {
		if c.Backup.Dir == "" {
			return fmt.Errorf("backup.dir is required when backup is enabled")
		}
		if c.Backup.Window <= 0 {
			return fmt.Errorf("backup.window must be greater than zero")
		}
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
