package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no explicit config path is given.
const DefaultPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"logLevel"`
	DatabaseURL string `yaml:"databaseURL"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	DataDir        string `yaml:"dataDir"`
	StorageBackend string `yaml:"storageBackend"` // "local" or "minio"
	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`

	TelegramToken string `yaml:"telegramToken"`
	AdminChatID   string `yaml:"adminChatId"`

	JWTSecret         string `yaml:"jwtSecret"`
	AdminLogin        string `yaml:"adminLogin"`
	AdminPasswordHash string `yaml:"adminPasswordHash"`

	LoginRateLimitPerMinute int `yaml:"loginRateLimitPerMinute"`

	PollIntervalSeconds int    `yaml:"pollIntervalSeconds"`
	NotifyHour          int    `yaml:"notifyHour"`
	WebOrigin           string `yaml:"webOrigin"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("FUELCONTROL_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("FUELCONTROL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("FUELCONTROL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FUELCONTROL_STORAGE_BACKEND"); v != "" {
		cfg.StorageBackend = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.TelegramToken = v
	}
	if v := os.Getenv("TELEGRAM_ADMIN_CHAT_ID"); v != "" {
		cfg.AdminChatID = v
	}
	if v := os.Getenv("FUELCONTROL_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("FUELCONTROL_ADMIN_LOGIN"); v != "" {
		cfg.AdminLogin = v
	}
	if v := os.Getenv("FUELCONTROL_ADMIN_PASSWORD_HASH"); v != "" {
		cfg.AdminPasswordHash = v
	}
	if v := os.Getenv("FUELCONTROL_LOGIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("FUELCONTROL_POLL_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PollIntervalSeconds = n
		}
	}
	if v := os.Getenv("FUELCONTROL_NOTIFY_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NotifyHour = n
		}
	}
	if v := os.Getenv("FUELCONTROL_WEB_ORIGIN"); v != "" {
		cfg.WebOrigin = v
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = "local"
	}
	if cfg.LoginRateLimitPerMinute == 0 {
		cfg.LoginRateLimitPerMinute = 10
	}
	if cfg.PollIntervalSeconds == 0 {
		cfg.PollIntervalSeconds = 2
	}
	if cfg.NotifyHour == 0 {
		cfg.NotifyHour = 9
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml)")
	}
	if cfg.JWTSecret == "" {
		return errors.New("config: jwtSecret is required (set FUELCONTROL_JWT_SECRET)")
	}
	if cfg.AdminLogin == "" || cfg.AdminPasswordHash == "" {
		return errors.New("config: adminLogin and adminPasswordHash are required")
	}
	if cfg.StorageBackend != "local" && cfg.StorageBackend != "minio" {
		return fmt.Errorf("config: unknown storageBackend %q", cfg.StorageBackend)
	}
	if cfg.StorageBackend == "minio" && cfg.MinioEndpoint == "" {
		return errors.New("config: minioEndpoint is required for the minio backend")
	}
	if cfg.LoginRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	if cfg.NotifyHour < 0 || cfg.NotifyHour > 23 {
		return errors.New("config: notifyHour must be between 0 and 23")
	}
	return nil
}

// PollInterval returns the bot long-poll interval as a duration.
func (c FileConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
