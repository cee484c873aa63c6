// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type WebConfig struct {
	Port          int           `yaml:"port"`
	APIKey        string        `yaml:"api_key"`
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	MaxUploadMB   int           `yaml:"max_upload_mb"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type VisionConfig struct {
	OpenAIKey     string        `yaml:"openai_key"`
	OpenAIBaseURL string        `yaml:"openai_base_url"`
	GeminiKey     string        `yaml:"gemini_key"`
	GeminiURL     string        `yaml:"gemini_url"`
	Model         string        `yaml:"model"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
}

type ArtifactConfig struct {
	Backend   string        `yaml:"backend"` // fs | s3
	Dir       string        `yaml:"dir"`     // fs backend
	Retention time.Duration `yaml:"retention"`
	S3        struct {
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		Bucket    string `yaml:"bucket"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"s3"`
}

type WorkerConfig struct {
	Count        int           `yaml:"count"`
	PollInterval time.Duration `yaml:"poll_interval"`
	BackoffUnit  time.Duration `yaml:"backoff_unit"`
	SweepEvery   time.Duration `yaml:"sweep_every"`
}

type NotifyConfig struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

type RateLimitConfig struct {
	CapturesPerMinute int `yaml:"captures_per_minute"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Web       WebConfig       `yaml:"web"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Vision    VisionConfig    `yaml:"vision"`
	Artifacts ArtifactConfig  `yaml:"artifacts"`
	Worker    WorkerConfig    `yaml:"worker"`
	Notify    NotifyConfig    `yaml:"notify"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Artifacts.Backend == "s3" && cfg.Artifacts.S3.Bucket == "" {
		return nil, errors.New("artifacts.s3.bucket is required for the s3 backend")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Web.SessionTTL <= 0 {
		cfg.Web.SessionTTL = 30 * time.Minute
	}
	if cfg.Web.MaxUploadMB <= 0 {
		cfg.Web.MaxUploadMB = 10
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Vision.Model == "" {
		cfg.Vision.Model = "gpt-4o-mini"
	}
	if cfg.Vision.ReadTimeout <= 0 {
		cfg.Vision.ReadTimeout = 30 * time.Second
	}
	if cfg.Vision.OpenAIBaseURL == "" {
		cfg.Vision.OpenAIBaseURL = "https://api.openai.com/v1"
	}
	if cfg.Artifacts.Backend == "" {
		cfg.Artifacts.Backend = "fs"
	}
	if cfg.Artifacts.Dir == "" {
		cfg.Artifacts.Dir = "artifacts"
	}
	if cfg.Artifacts.Retention <= 0 {
		cfg.Artifacts.Retention = 72 * time.Hour
	}
	if cfg.Worker.Count <= 0 {
		cfg.Worker.Count = 4
	}
	if cfg.Worker.PollInterval <= 0 {
		cfg.Worker.PollInterval = 500 * time.Millisecond
	}
	if cfg.Worker.BackoffUnit <= 0 {
		cfg.Worker.BackoffUnit = time.Second
	}
	if cfg.Worker.SweepEvery <= 0 {
		cfg.Worker.SweepEvery = time.Hour
	}
	if cfg.RateLimit.CapturesPerMinute <= 0 {
		cfg.RateLimit.CapturesPerMinute = 10
	}
}
