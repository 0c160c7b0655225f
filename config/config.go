// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DatabaseURLEnvVars は接続文字列を探す環境変数。先に書いたものが優先される。
var DatabaseURLEnvVars = []string{"MIGRATE_DATABASE_URL", "DATABASE_URL"}

// DotenvFiles は起動時に読み込む.envファイル。既存の環境変数は上書きしない。
var DotenvFiles = []string{".env.local", ".env"}

// Config はアプリケーション設定を表す。
type Config struct {
	DatabaseURL      string  `mapstructure:"database_url"`
	MigrationsDir    string  `mapstructure:"migrations_dir"`
	LogLevel         string  `mapstructure:"log_level"`
	LogFormat        string  `mapstructure:"log_format"`
	OtelEnabled      bool    `mapstructure:"otel_enabled"`
	OtelEndpoint     string  `mapstructure:"otel_endpoint"`
	OtelServiceName  string  `mapstructure:"otel_service_name"`
	OtelSamplingRate float64 `mapstructure:"otel_sampling_rate"`
}

// HasDatabaseURL は接続文字列が設定されているかを返す。
func (c *Config) HasDatabaseURL() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}

// Load は.envファイル、設定ファイル（任意）、環境変数から設定を読み込む。
func Load() (*Config, error) {
	// ファイルが無い場合は無視する
	for _, f := range DotenvFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("migrate")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// database_urlは複数の環境変数にバインドし、空でない最初の値を採用する
	if err := v.BindEnv(append([]string{"database_url"}, DatabaseURLEnvVars...)...); err != nil {
		return nil, fmt.Errorf("binding database_url: %w", err)
	}
	for key, env := range map[string]string{
		"migrations_dir":     "MIGRATIONS_DIR",
		"log_level":          "LOG_LEVEL",
		"log_format":         "LOG_FORMAT",
		"otel_enabled":       "OTEL_ENABLED",
		"otel_endpoint":      "OTEL_EXPORTER_OTLP_ENDPOINT",
		"otel_service_name":  "OTEL_SERVICE_NAME",
		"otel_sampling_rate": "OTEL_SAMPLING_RATE",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("migrations_dir", "migrations")
	v.SetDefault("log_level", "WARN")
	v.SetDefault("log_format", "text")
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_endpoint", "localhost:4317")
	v.SetDefault("otel_service_name", "schema-migrator")
	v.SetDefault("otel_sampling_rate", 1.0)
}
