package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress        = "localhost:8080"
	defaultProxyAddress         = "localhost:3000"
	defaultEnv                  = "local"
	defaultConfigDir            = ".anchorview"
	defaultCacheVersion         = 1
	defaultSyncDelayMS          = 2000
	defaultConnectivityInterval = 10
)

type Config struct {
	Env                  string
	ServerAddress        string
	AppAddress           string
	EnableTLS            bool
	ConfigDir            string
	DataPath             string
	TokenPath            string
	LogFile              string
	ProxyAddress         string
	CacheVersion         int
	PrecacheURLs         []string
	SyncDelay            time.Duration
	ConnectivityInterval time.Duration
	CompanyID            string
	UserID               string
}

// MustLoad загружает конфигурацию клиента из окружения и .env
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}
	return cfg
}

// Load читает конфигурацию; .env в текущей или родительской директории не обязателен
func Load() (*Config, error) {
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	v.SetDefault("PROXY_ADDRESS", defaultProxyAddress)
	v.SetDefault("CONFIG_DIR", defaultConfigDir)
	v.SetDefault("CACHE_VERSION", defaultCacheVersion)
	v.SetDefault("SYNC_DELAY_MS", defaultSyncDelayMS)
	v.SetDefault("CONNECTIVITY_INTERVAL_SECONDS", defaultConnectivityInterval)
	v.SetDefault("ENABLE_TLS", false)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	configDir := v.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		configDir = filepath.Join(homeDir, configDir)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("ошибка создания директории конфигурации: %w", err)
	}

	orDefault := func(key, name string) string {
		if p := v.GetString(key); p != "" {
			return p
		}
		return filepath.Join(configDir, name)
	}

	cfg := &Config{
		Env:                  v.GetString("APP_ENV"),
		ServerAddress:        v.GetString("SERVER_ADDRESS"),
		AppAddress:           v.GetString("APP_ADDRESS"),
		EnableTLS:            v.GetBool("ENABLE_TLS"),
		ConfigDir:            configDir,
		DataPath:             orDefault("DATA_PATH", "anchorview.db"),
		TokenPath:            orDefault("TOKEN_PATH", "token"),
		LogFile:              v.GetString("LOG_FILE"),
		ProxyAddress:         v.GetString("PROXY_ADDRESS"),
		CacheVersion:         v.GetInt("CACHE_VERSION"),
		PrecacheURLs:         splitList(v.GetString("PRECACHE_URLS")),
		SyncDelay:            time.Duration(v.GetInt("SYNC_DELAY_MS")) * time.Millisecond,
		ConnectivityInterval: time.Duration(v.GetInt("CONNECTIVITY_INTERVAL_SECONDS")) * time.Second,
		CompanyID:            v.GetString("COMPANY_ID"),
		UserID:               v.GetString("USER_ID"),
	}
	if cfg.AppAddress == "" {
		cfg.AppAddress = cfg.ServerAddress
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList разбирает список через запятую, пустые элементы пропускаются
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address не может быть пустым")
	}
	if c.CacheVersion < 1 {
		return fmt.Errorf("cache_version должен быть положительным: %d", c.CacheVersion)
	}
	for _, p := range c.PrecacheURLs {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("precache_urls: путь должен начинаться с /: %q", p)
		}
	}
	if c.ConnectivityInterval <= 0 {
		return fmt.Errorf("connectivity_interval_seconds должен быть положительным")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.EnableTLS {
		return "https://"
	}
	return "http://"
}

// BaseURL адрес API сервера
func (c *Config) BaseURL() string {
	return c.scheme() + c.ServerAddress
}

// AppURL адрес приложения, которое обслуживает локальный прокси
func (c *Config) AppURL() (*url.URL, error) {
	u, err := url.Parse(c.scheme() + c.AppAddress)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора app_address: %w", err)
	}
	return u, nil
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == ""
}
