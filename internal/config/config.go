package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Advisor   AdvisorConfig   `mapstructure:"advisor"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MigrationsPath string `mapstructure:"migrations_path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PipelineConfig controls rule evaluation and classification.
type PipelineConfig struct {
	// Optional YAML file overriding the built-in classifier tables
	// (alert thresholds, solution templates, escalation policies).
	ClassifierTablesPath string `mapstructure:"classifier_tables_path"`
	// Worker-side timeout for declarative backend calls, seconds.
	BackendTimeout int `mapstructure:"backend_timeout"`
}

// AnalyticsConfig controls the execution analytics store.
type AnalyticsConfig struct {
	RetainedRecords int `mapstructure:"retained_records"`
	DefaultWindow   int `mapstructure:"default_window_days"`
}

// AdvisorConfig configures the optional text-advisory provider used by the
// rule learner. When disabled the learner falls back to deterministic
// suggestions.
type AdvisorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"`
}

// MonitorConfig configures the host sampler and the learner schedule.
type MonitorConfig struct {
	SamplerEnabled   bool   `mapstructure:"sampler_enabled"`
	SampleSchedule   string `mapstructure:"sample_schedule"`
	OptimizeEnabled  bool   `mapstructure:"optimize_enabled"`
	OptimizeSchedule string `mapstructure:"optimize_schedule"`
	DiskPath         string `mapstructure:"disk_path"`
}

type WebSocketConfig struct {
	PingInterval int `mapstructure:"ping_interval"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("advisor.api_key", "ADVISOR_API_KEY")
	viper.BindEnv("advisor.url", "ADVISOR_URL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing file is fine, defaults and env cover everything.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 3301)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("database.path", "./data/procmon.db")
	viper.SetDefault("database.migrations_path", "./migrations")
	viper.SetDefault("database.max_connections", 25)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("pipeline.backend_timeout", 10)

	viper.SetDefault("analytics.retained_records", 1000)
	viper.SetDefault("analytics.default_window_days", 30)

	viper.SetDefault("advisor.enabled", false)
	viper.SetDefault("advisor.model", "deepseek-chat")
	viper.SetDefault("advisor.timeout", 30)

	viper.SetDefault("monitor.sampler_enabled", true)
	viper.SetDefault("monitor.sample_schedule", "@every 1m")
	viper.SetDefault("monitor.optimize_enabled", false)
	viper.SetDefault("monitor.optimize_schedule", "@daily")
	viper.SetDefault("monitor.disk_path", "/")

	viper.SetDefault("websocket.ping_interval", 30)
	viper.SetDefault("websocket.write_timeout", 10)
}
