package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath         = "../../.env"
	defaultSecret   = "SecRetKey"
	defaultTokenTTL = 24
	EnvLocal        = "local"
	EnvDev          = "dev"
	EnvProd         = "prod"
)

type Config struct {
	Env    string
	DB     DB
	Server Server
	Logger Logger
	Token  Token
}

type DB struct {
	DatabaseURI string
	Migrations  string
}

type Server struct {
	RunAddress string
}

type Logger struct {
	LogLevel string
}

type Token struct {
	Secret string
	TTL    time.Duration
}

// MustLoad загружает конфигурацию сервера из окружения и .env
func MustLoad() *Config {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("app_env", EnvLocal)
	v.SetDefault("run_address", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("migrations_path", "migrations")
	v.SetDefault("sync_token_ttl_hours", defaultTokenTTL)

	cfg, err := fromViper(v)
	if err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}
	return cfg
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env: v.GetString("app_env"),
		DB: DB{
			DatabaseURI: v.GetString("database_uri"),
			Migrations:  v.GetString("migrations_path"),
		},
		Server: Server{RunAddress: v.GetString("run_address")},
		Logger: Logger{LogLevel: v.GetString("log_level")},
		Token: Token{
			Secret: v.GetString("sync_token_secret"),
			TTL:    time.Duration(v.GetInt("sync_token_ttl_hours")) * time.Hour,
		},
	}

	if cfg.Token.Secret == "" {
		if cfg.Env == EnvProd {
			return nil, errors.New("sync_token_secret обязателен в prod")
		}
		cfg.Token.Secret = defaultSecret
	}
	if cfg.Token.TTL <= 0 {
		cfg.Token.TTL = defaultTokenTTL * time.Hour
	}
	if cfg.DB.DatabaseURI == "" {
		return nil, errors.New("database_uri не может быть пустым")
	}

	return cfg, nil
}
