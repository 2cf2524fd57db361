package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	configPathEnv = "GWP_CONFIG_PATH"

	// DefaultJWTSecret 只允許在 local 環境使用
	DefaultJWTSecret = "dev-secret-please-change"
)

var ErrDefaultJWTSecret = errors.New("jwt secret must be set outside the local environment")

type Config struct {
	Env        string `yaml:"env" env:"GWP_ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	Database   `yaml:"database"`
	Log        `yaml:"log"`
	Kafka      `yaml:"kafka"`
	Auth       `yaml:"auth"`
	Removal    `yaml:"removal"`
}

type HTTPServer struct {
	Host string `yaml:"host" env:"GWP_HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GWP_HTTP_PORT" env-default:"8080"`
}

type Database struct {
	Driver string `yaml:"driver" env:"GWP_DB_DRIVER" env-default:"sqlite"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn" env:"GWP_DB_DSN" env-default:"file:gift_with_purchase.db?cache=shared"`
}

type Log struct {
	Level  string `yaml:"level" env:"GWP_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"GWP_LOG_FORMAT" env-default:"text"` // text, json
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"GWP_KAFKA_BROKERS" env-separator:","`
	Topic     string   `yaml:"topic" env:"GWP_KAFKA_TOPIC" env-default:"gift-events"`
	RuleTopic string   `yaml:"rule_topic" env:"GWP_KAFKA_RULE_TOPIC" env-default:"gift-rule-events"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"GWP_JWT_SECRET" env-default:"dev-secret-please-change"`
}

// Removal 顧客手動移除贈品的紀錄保留多久
type Removal struct {
	TTL time.Duration `yaml:"ttl" env:"GWP_REMOVAL_TTL" env-default:"24h"`
}

func (h HTTPServer) Addr() string {
	return fmt.Sprintf("%s:%s", h.Host, h.Port)
}

// Load 有設定檔路徑時讀檔（環境變數仍可覆寫），否則只讀環境變數
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to find config file: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Env != "local" && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return fmt.Errorf("env %q: %w", c.Env, ErrDefaultJWTSecret)
	}
	if c.Removal.TTL <= 0 {
		return fmt.Errorf("removal ttl must be positive, got %s", c.Removal.TTL)
	}
	return nil
}

func MustLoad() *Config {
	cfg, err := Load(os.Getenv(configPathEnv))
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg
}
