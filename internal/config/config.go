package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	GinMode         string        `mapstructure:"gin_mode" validate:"oneof=debug release test"`
	LogLevel        string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat       string        `mapstructure:"log_format" validate:"oneof=text json"`
	DBDriver        string        `mapstructure:"db_driver" validate:"oneof=sqlite mysql postgres"`
	DBDSN           string        `mapstructure:"db_dsn"`
	DBHost          string        `mapstructure:"db_host"`
	DBPort          string        `mapstructure:"db_port"`
	DBUser          string        `mapstructure:"db_user"`
	DBPassword      string        `mapstructure:"db_password"`
	DBName          string        `mapstructure:"db_name"`
	JWTSecret       string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	JWTExpiresIn    time.Duration `mapstructure:"jwt_expires_in" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// setting binds one config key to its environment variable and default.
type setting struct {
	key          string
	env          string
	defaultValue any
}

var settings = []setting{
	{"port", "PORT", "8080"},
	{"gin_mode", "GIN_MODE", "debug"},
	{"log_level", "LOG_LEVEL", "info"},
	{"log_format", "LOG_FORMAT", "text"},
	{"db_driver", "DB_DRIVER", "sqlite"},
	{"db_dsn", "DB_DSN", "tasks.db"},
	{"db_host", "DB_HOST", "localhost"},
	{"db_port", "DB_PORT", ""},
	{"db_user", "DB_USER", "taskuser"},
	{"db_password", "DB_PASSWORD", "taskpassword"},
	{"db_name", "DB_NAME", "task_management"},
	{"jwt_secret", "JWT_SECRET", ""},
	{"jwt_expires_in", "JWT_EXPIRES_IN", "1h"},
	{"shutdown_timeout", "SHUTDOWN_TIMEOUT", "10s"},
}

// Load reads the configuration from the environment, applies defaults and
// validates the result. The returned Config is never mutated afterwards.
func Load() (*Config, error) {
	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.defaultValue)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", s.env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if cfg.DBPort == "" {
		cfg.DBPort = defaultDBPort(cfg.DBDriver)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.DBUser,
			c.DBPassword,
			c.DBHost,
			c.DBPort,
			c.DBName,
		)
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost,
			c.DBPort,
			c.DBUser,
			c.DBPassword,
			c.DBName,
		)
	default:
		return c.DBDSN
	}
}

func defaultDBPort(driver string) string {
	switch driver {
	case "postgres":
		return "5432"
	default:
		return "3306"
	}
}
