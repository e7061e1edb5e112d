package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	JWTSecret     string           `json:"jwt_secret"`
	JWTTTLHours   int              `json:"jwt_ttl_hours"`
	IDMaxAttempts int              `json:"id_max_attempts"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	Database      DatabaseConfig   `json:"database"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Mail          MailConfig       `json:"mail"`
	OTP           OTPConfig        `json:"otp"`
	Redis         RedisConfig      `json:"redis"`
	FileStore     FileStoreConfig  `json:"file_store"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
	LoginURL string `json:"login_url"`
}

type OTPConfig struct {
	Backend         string `json:"backend"`
	CooldownSeconds int    `json:"cooldown_seconds"`
	TTLSeconds      int    `json:"ttl_seconds"`
	ReapCron        string `json:"reap_cron"`
	MemoryCapacity  int    `json:"memory_capacity"`
}

type RedisConfig struct {
	Addrs    []string `json:"addrs"`
	Password string   `json:"password"`
	DB       int      `json:"db"`
}

type FileStoreConfig struct {
	Type         string      `json:"type"`
	MaxPhotoSize int64       `json:"max_photo_size"`
	Data         interface{} `json:"data"`
}

const (
	OTPBackendPostgres = "postgres"
	OTPBackendRedis    = "redis"
	OTPBackendMemory   = "memory"
)

// Load reads the JSON config at path, then applies overrides from the
// environment (and a .env file in the working directory, when present).
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("EMS_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("EMS_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("EMS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addrs = strings.Split(v, ",")
	}
	if v := os.Getenv("EMS_SMTP_PASSWORD"); v != "" {
		cfg.Mail.Password = v
	}
}

func (cfg *Config) validate() error {
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 24
	}
	if cfg.IDMaxAttempts <= 0 {
		cfg.IDMaxAttempts = 5
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.OTP.Backend == "" {
		cfg.OTP.Backend = OTPBackendPostgres
	}
	if cfg.OTP.CooldownSeconds <= 0 {
		cfg.OTP.CooldownSeconds = 60
	}
	if cfg.OTP.TTLSeconds <= 0 {
		cfg.OTP.TTLSeconds = 120
	}
	if cfg.OTP.CooldownSeconds > cfg.OTP.TTLSeconds {
		return fmt.Errorf("otp.cooldown_seconds must not exceed otp.ttl_seconds")
	}
	if cfg.OTP.ReapCron == "" {
		cfg.OTP.ReapCron = "* * * * *"
	}
	switch cfg.OTP.Backend {
	case OTPBackendPostgres, OTPBackendMemory:
	case OTPBackendRedis:
		if len(cfg.Redis.Addrs) == 0 {
			return fmt.Errorf("redis.addrs is required for the redis otp backend")
		}
	default:
		return fmt.Errorf("otp.backend must be postgres, redis or memory")
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.FileStore.MaxPhotoSize <= 0 {
		cfg.FileStore.MaxPhotoSize = 5 * 1024 * 1024
	}
	return nil
}
