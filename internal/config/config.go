package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host           string   `yaml:"host"`
		Port           int      `yaml:"port"`
		Env            string   `yaml:"env"` // development, test, production
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Database struct {
		DSN          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
		AutoMigrate  bool   `yaml:"auto_migrate"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		MaxAttempts  int    `yaml:"max_attempts"`
		BackoffSec   int    `yaml:"backoff_sec"`
	} `yaml:"email"`

	Frontend struct {
		URL string `yaml:"url"`
	} `yaml:"frontend"`

	Auth struct {
		TrustedDomains     []string `yaml:"trusted_domains"`
		PinTTLMinutes      int      `yaml:"pin_ttl_minutes"`
		SessionTTLDays     int      `yaml:"session_ttl_days"`
		ResetTokenTTLMins  int      `yaml:"reset_token_ttl_minutes"`
		BcryptCost         int      `yaml:"bcrypt_cost"`
		CookieName         string   `yaml:"cookie_name"`
		CookieSameSite     string   `yaml:"cookie_same_site"` // lax, strict, none
		CookieSecure       bool     `yaml:"cookie_secure"`
		CookieDomain       string   `yaml:"cookie_domain"`
		FirstAdminEmail    string   `yaml:"first_admin_email"`
		FirstAdminPassword string   `yaml:"first_admin_password"`
	} `yaml:"auth"`

	Storage struct {
		Type           string `yaml:"type"`      // local, s3
		BasePath       string `yaml:"base_path"` // local
		BaseURL        string `yaml:"base_url"`  // публичный префикс
		Bucket         string `yaml:"bucket"`
		Region         string `yaml:"region"`
		AccessKey      string `yaml:"access_key"`
		SecretKey      string `yaml:"secret_key"`
		Endpoint       string `yaml:"endpoint"` // MinIO / R2 / кастомный S3
		ForcePathStyle bool   `yaml:"force_path_style"`
		PublicRead     bool   `yaml:"public_read"`
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"`
		MaxFiles     int      `yaml:"max_files"`
		AllowedTypes []string `yaml:"allowed_types"`
		MaxImageSide int      `yaml:"max_image_side"` // больше - уменьшаем
		JPEGQuality  int      `yaml:"jpeg_quality"`
	} `yaml:"upload"`

	// Лимиты работают, только если настроен Redis
	RateLimit struct {
		Auth  BucketLimit `yaml:"auth"`
		Write BucketLimit `yaml:"write"`
		Read  BucketLimit `yaml:"read"`
		Admin BucketLimit `yaml:"admin"`
	} `yaml:"rate_limit"`

	Log struct {
		ErrorLogPath string `yaml:"error_log_path"`
	} `yaml:"log"`
}

// BucketLimit - лимит запросов на окно
type BucketLimit struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

var AppConfig *Config

// IsProduction - в продакшене ответы об ошибках урезаются, cookie только Secure
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// LoadConfig загружает конфиг в глобальный AppConfig или падает
func LoadConfig() {
	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	AppConfig = cfg
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

// Load: .env -> YAML (если файл есть) -> переменные окружения -> значения по умолчанию
func Load(path string) (*Config, error) {
	// .env не обязателен
	_ = godotenv.Load()

	var cfg Config

	explicit := path != ""
	if !explicit {
		path = "config/config.yaml"
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file at %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Работаем только на переменных окружения
	default:
		return nil, fmt.Errorf("failed to read config file at %s: %w", path, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Env, "SERVER_ENV")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}

	setString(&cfg.Database.DSN, "DATABASE_URL")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	setString(&cfg.Email.SMTPHost, "SMTP_HOST")
	setInt(&cfg.Email.SMTPPort, "SMTP_PORT")
	setString(&cfg.Email.SMTPUsername, "SMTP_USER")
	setString(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Email.FromEmail, "MAIL_FROM")

	setString(&cfg.Frontend.URL, "FRONTEND_URL")

	if domains := os.Getenv("TRUSTED_DOMAINS"); domains != "" {
		cfg.Auth.TrustedDomains = splitList(domains)
	}
	setString(&cfg.Auth.CookieName, "COOKIE_NAME")
	setString(&cfg.Auth.CookieSameSite, "COOKIE_SAME_SITE")
	setString(&cfg.Auth.CookieDomain, "COOKIE_DOMAIN")
	setBool(&cfg.Auth.CookieSecure, "COOKIE_SECURE")
	setString(&cfg.Auth.FirstAdminEmail, "FIRST_ADMIN_EMAIL")
	setString(&cfg.Auth.FirstAdminPassword, "FIRST_ADMIN_PASSWORD")

	setString(&cfg.Storage.Type, "STORAGE_TYPE")
	setString(&cfg.Storage.BasePath, "STORAGE_BASE_PATH")
	setString(&cfg.Storage.BaseURL, "STORAGE_BASE_URL")
	setString(&cfg.Storage.Bucket, "S3_BUCKET")
	setString(&cfg.Storage.Region, "S3_REGION")
	setString(&cfg.Storage.AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "S3_SECRET_KEY")
	setString(&cfg.Storage.Endpoint, "S3_ENDPOINT")
	setBool(&cfg.Storage.ForcePathStyle, "S3_FORCE_PATH_STYLE")

	setString(&cfg.Log.ErrorLogPath, "ERROR_LOG_PATH")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}

	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Email.FromName == "" {
		cfg.Email.FromName = "CyCup"
	}
	if cfg.Email.MaxAttempts == 0 {
		cfg.Email.MaxAttempts = 5
	}
	if cfg.Email.BackoffSec == 0 {
		cfg.Email.BackoffSec = 5
	}
	if cfg.Frontend.URL == "" {
		cfg.Frontend.URL = "http://localhost:3000"
	}

	if len(cfg.Auth.TrustedDomains) == 0 {
		cfg.Auth.TrustedDomains = []string{"abo.fi", "utu.fi"}
	}
	if cfg.Auth.PinTTLMinutes == 0 {
		cfg.Auth.PinTTLMinutes = 15
	}
	if cfg.Auth.SessionTTLDays == 0 {
		cfg.Auth.SessionTTLDays = 7
	}
	if cfg.Auth.ResetTokenTTLMins == 0 {
		cfg.Auth.ResetTokenTTLMins = 60
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 12
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "session"
	}
	if cfg.Auth.CookieSameSite == "" {
		cfg.Auth.CookieSameSite = "lax"
	}
	if cfg.IsProduction() {
		cfg.Auth.CookieSecure = true
	}

	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./uploads"
	}
	if cfg.Storage.BaseURL == "" && cfg.Storage.Type == "local" {
		cfg.Storage.BaseURL = "/uploads"
	}

	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = 3 * 1024 * 1024
	}
	if cfg.Upload.MaxFiles == 0 {
		cfg.Upload.MaxFiles = 3
	}
	if len(cfg.Upload.AllowedTypes) == 0 {
		cfg.Upload.AllowedTypes = []string{"image/jpeg", "image/png"}
	}
	if cfg.Upload.MaxImageSide == 0 {
		cfg.Upload.MaxImageSide = 1600
	}
	if cfg.Upload.JPEGQuality == 0 {
		cfg.Upload.JPEGQuality = 85
	}

	defaultBucket(&cfg.RateLimit.Auth, 20, 15*60)
	defaultBucket(&cfg.RateLimit.Write, 30, 60)
	defaultBucket(&cfg.RateLimit.Read, 120, 60)
	defaultBucket(&cfg.RateLimit.Admin, 10, 60)

	if cfg.Log.ErrorLogPath == "" {
		cfg.Log.ErrorLogPath = "logs/error.log"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Type {
	case "local", "s3":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	if c.Storage.Type == "s3" && c.Storage.Bucket == "" {
		return errors.New("storage.bucket is required for s3 storage")
	}
	switch strings.ToLower(c.Auth.CookieSameSite) {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("unsupported cookie same_site value: %s", c.Auth.CookieSameSite)
	}
	return nil
}

func defaultBucket(b *BucketLimit, requests, windowSeconds int) {
	if b.Requests == 0 {
		b.Requests = requests
	}
	if b.WindowSeconds == 0 {
		b.WindowSeconds = windowSeconds
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
