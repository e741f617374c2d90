package config

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config - структура для хранения конфигураций приложения
type Config struct {
	ServerAddress  string        `mapstructure:"SERVER_ADDRESS"`
	StoreDriver    string        `mapstructure:"STORE_DRIVER"`
	PostgresConn   string        `mapstructure:"POSTGRES_CONN"`
	PostgresUser   string        `mapstructure:"POSTGRES_USERNAME"`
	PostgresPass   string        `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost   string        `mapstructure:"POSTGRES_HOST"`
	PostgresPort   string        `mapstructure:"POSTGRES_PORT"`
	PostgresDB     string        `mapstructure:"POSTGRES_DATABASE"`
	MigrationURL   string        `mapstructure:"MIGRATION_URL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`

	DefaultCurrency         string `mapstructure:"DEFAULT_CURRENCY"`
	DefaultGSTEnabled       bool   `mapstructure:"DEFAULT_GST_ENABLED"`
	DefaultGSTRate          string `mapstructure:"DEFAULT_GST_RATE"`
	DefaultPricesIncludeGST bool   `mapstructure:"DEFAULT_PRICES_INCLUDE_GST"`
	AuthoringHourCap        bool   `mapstructure:"AUTHORING_HOUR_CAP"`

	PortalURL    string `mapstructure:"PORTAL_URL"`
	ResendAPIKey string `mapstructure:"RESEND_API_KEY"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	NotifyEmail  string `mapstructure:"NOTIFY_EMAIL"`
}

var keys = []string{
	"SERVER_ADDRESS", "STORE_DRIVER", "POSTGRES_CONN", "POSTGRES_USERNAME", "POSTGRES_PASSWORD",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DATABASE", "MIGRATION_URL", "REQUEST_TIMEOUT",
	"JWT_SECRET", "DEFAULT_CURRENCY", "DEFAULT_GST_ENABLED", "DEFAULT_GST_RATE",
	"DEFAULT_PRICES_INCLUDE_GST", "AUTHORING_HOUR_CAP", "PORTAL_URL", "RESEND_API_KEY",
	"MAIL_FROM", "NOTIFY_EMAIL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("MIGRATION_URL", "file://migrations")
	v.SetDefault("REQUEST_TIMEOUT", 5*time.Second)
	v.SetDefault("DEFAULT_CURRENCY", "AUD")
	v.SetDefault("DEFAULT_GST_ENABLED", true)
	v.SetDefault("DEFAULT_GST_RATE", "0.1")
	v.SetDefault("DEFAULT_PRICES_INCLUDE_GST", false)
	v.SetDefault("AUTHORING_HOUR_CAP", false)
	v.SetDefault("PORTAL_URL", "http://localhost:3000")
	v.SetDefault("MAIL_FROM", "proposals@localhost")
}

// LoadConfig загружает конфигурацию из файла app.env в path и переменных окружения.
// Отсутствие файла не является ошибкой.
func LoadConfig(path string) (cfg Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	setDefaults(v)

	v.AutomaticEnv()
	for _, key := range keys {
		if err = v.BindEnv(key); err != nil {
			return
		}
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}
	err = v.Unmarshal(&cfg)
	return
}

// GSTRate разбирает DEFAULT_GST_RATE.
func (c Config) GSTRate() (decimal.Decimal, error) {
	return decimal.NewFromString(c.DefaultGSTRate)
}
