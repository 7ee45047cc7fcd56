package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	RepositoryInMemory = "inmemory"
	RepositoryPostgres = "postgres"
	RepositorySQLite   = "sqlite"
)

// DefaultPath - путь по умолчанию, если не задан флаг -config и TODO_CONFIG
const DefaultPath = "config.yml"

const envPrefix = "TODO"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Repository  RepositoryConfig  `mapstructure:"repository"`
	Database    DatabaseConfig    `mapstructure:"database"`
	SQLite      SQLiteConfig      `mapstructure:"sqlite"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
	Auth        AuthConfig        `mapstructure:"auth"`
	CORS        CORSConfig        `mapstructure:"cors"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"` // "inmemory", "postgres" или "sqlite"
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int32         `mapstructure:"max_connections"`
	MinConnections int32         `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type AttachmentsConfig struct {
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	Endpoint      string        `mapstructure:"endpoint"`
	URLExpiration time.Duration `mapstructure:"url_expiration"`
}

type AuthConfig struct {
	// пусто - встроенный сертификат
	CertificateFile string `mapstructure:"certificate_file"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"rpm"`
	// лимит по IP до проверки токена, 0 - выключен
	IPRequestsPerMinute int `mapstructure:"ip_rpm"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("logging.development", false)

	v.SetDefault("repository.type", RepositoryInMemory)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)

	v.SetDefault("sqlite.path", "todos.db")

	v.SetDefault("attachments.bucket", "")
	v.SetDefault("attachments.region", "us-east-1")
	v.SetDefault("attachments.endpoint", "")
	v.SetDefault("attachments.url_expiration", 300*time.Second)

	v.SetDefault("auth.certificate_file", "")

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("rate_limit.rpm", 100)
	v.SetDefault("rate_limit.ip_rpm", 300)
}

// Load читает yaml по пути path. Отсутствие файла допустимо только для
// DefaultPath: тогда значения берутся из умолчаний и переменных окружения TODO_*
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			// отсутствовать может только файл по умолчанию
			if path != DefaultPath || !isNotExist(err) {
				return nil, fmt.Errorf("не могу прочитать %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Validate проверяет то, без чего сервис не поднимется
func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryInMemory, RepositorySQLite:
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return errors.New("конфигурация: для postgres нужен database.url")
		}
	default:
		return fmt.Errorf("конфигурация: неизвестный тип репозитория %q", c.Repository.Type)
	}

	if c.Repository.Type == RepositorySQLite && c.SQLite.Path == "" {
		return errors.New("конфигурация: для sqlite нужен sqlite.path")
	}

	if c.Attachments.Bucket == "" {
		return errors.New("конфигурация: не задан attachments.bucket")
	}
	if c.Attachments.URLExpiration <= 0 {
		return fmt.Errorf("конфигурация: attachments.url_expiration должен быть положительным, получено %s",
			c.Attachments.URLExpiration)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
