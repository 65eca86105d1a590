package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config - структура для хранения конфигураций приложения
type Config struct {
	ServerAddress     string        `mapstructure:"SERVER_ADDRESS"`
	PostgresConn      string        `mapstructure:"POSTGRES_CONN"`
	PostgresUser      string        `mapstructure:"POSTGRES_USERNAME"`
	PostgresPass      string        `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost      string        `mapstructure:"POSTGRES_HOST"`
	PostgresPort      string        `mapstructure:"POSTGRES_PORT"`
	PostgresDB        string        `mapstructure:"POSTGRES_DATABASE"`
	MigrationURL      string        `mapstructure:"MIGRATION_URL"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	AccessLinkBase    string        `mapstructure:"ACCESS_LINK_BASE"`
	ReportDir         string        `mapstructure:"REPORT_DIR"`
	ReportBaseURL     string        `mapstructure:"REPORT_BASE_URL"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	RequiredDocuments string        `mapstructure:"REQUIRED_DOCUMENTS"`
}

var defaults = map[string]any{
	"SERVER_ADDRESS":     "0.0.0.0:8080",
	"POSTGRES_CONN":      "",
	"POSTGRES_USERNAME":  "",
	"POSTGRES_PASSWORD":  "",
	"POSTGRES_HOST":      "",
	"POSTGRES_PORT":      "5432",
	"POSTGRES_DATABASE":  "",
	"MIGRATION_URL":      "file://db/migration",
	"JWT_SECRET":         "",
	"ACCESS_LINK_BASE":   "http://localhost:8080/vendor/bid",
	"REPORT_DIR":         "reports",
	"REPORT_BASE_URL":    "http://localhost:8080/reports",
	"REQUEST_TIMEOUT":    "5s",
	"LOG_LEVEL":          "info",
	"REQUIRED_DOCUMENTS": "insurance,license,tax_certificate",
}

// LoadConfig загружает конфигурацию из файла app.env и переменных окружения
func LoadConfig(path string) (cfg Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}
	if err = v.Unmarshal(&cfg); err != nil {
		return
	}
	if cfg.JWTSecret == "" {
		err = fmt.Errorf("JWT_SECRET is required")
	}
	return
}

// Documents возвращает список обязательных типов документов.
func (c Config) Documents() []string {
	var docs []string
	for _, d := range strings.Split(c.RequiredDocuments, ",") {
		if d = strings.TrimSpace(d); d != "" {
			docs = append(docs, d)
		}
	}
	return docs
}
