package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Addr string `yaml:"-"` // computed after load
	} `yaml:"server"`
	Log struct {
		Level    string `yaml:"level"`
		Format   string `yaml:"format"`
		Output   string `yaml:"output"`
		FilePath string `yaml:"file_path"`
	} `yaml:"log"`

	DB struct {
		Driver          string `yaml:"driver"` // mysql | postgres
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		Username        string `yaml:"username"`
		Password        string `yaml:"password"`
		Database        string `yaml:"database"`
		Charset         string `yaml:"charset"`
		SSLMode         string `yaml:"ssl_mode"`
		DSN             string `yaml:"-"`
		MaxOpenConns    int    `yaml:"max_open_conns"`
		MaxIdleConns    int    `yaml:"max_idle_conns"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // minutes
	} `yaml:"database"`
	Auth struct {
		SessionCookie string `yaml:"session_cookie"`
	} `yaml:"auth"`
	Providers struct {
		OpenAI struct {
			BaseURL    string `yaml:"base_url"`
			TimeoutSec int    `yaml:"timeout_sec"`
		} `yaml:"openai"`
		Anthropic struct {
			BaseURL    string `yaml:"base_url"`
			Version    string `yaml:"version"`
			MaxTokens  int    `yaml:"max_tokens"`
			TimeoutSec int    `yaml:"timeout_sec"`
		} `yaml:"anthropic"`
		Google struct {
			TimeoutSec int `yaml:"timeout_sec"`
		} `yaml:"google"`
	} `yaml:"providers"`
	Resume struct {
		Identity       string `yaml:"identity"`
		BatchSize      int    `yaml:"batch_size"`
		MaxSelected    int    `yaml:"max_selected"`
		MaxRetries     int    `yaml:"max_retries"`
		MaxReduceInput int    `yaml:"max_reduce_input"` // merged candidates allowed in the final pass
		MaxConcurrency int    `yaml:"max_concurrency"`  // parallel selector calls
	} `yaml:"resume"`
	WordPress struct {
		PerPage    int    `yaml:"per_page"`
		MaxPages   int    `yaml:"max_pages"`
		TimeoutSec int    `yaml:"timeout_sec"`
		UserAgent  string `yaml:"user_agent"`
	} `yaml:"wordpress"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTLMin   int    `yaml:"ttl_min"`
	} `yaml:"redis"`
	Archive struct {
		Bucket          string `yaml:"bucket"`
		Prefix          string `yaml:"prefix"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"archive"`
	Scheduler struct {
		Enabled     bool   `yaml:"enabled"`
		Cron        string `yaml:"cron"`
		Timezone    string `yaml:"timezone"`
		Concurrency int    `yaml:"concurrency"` // organizations processed in parallel
	} `yaml:"scheduler"`
	Timeouts struct {
		RequestSec  int `yaml:"request_sec"`
		ResponseSec int `yaml:"response_sec"`
		IdleSec     int `yaml:"idle_sec"`
	} `yaml:"timeouts"`
}

// Load reads config.yaml from the working directory, falling back to the environment.
func Load() *Config {
	return LoadFrom(defaultConfigPath)
}

// LoadFrom reads the given YAML file; secrets are always taken from the environment when set.
func LoadFrom(path string) *Config {
	// .env is optional; system environment still applies when it is missing
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return loadFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Printf("Error loading %s: %v, falling back to environment variables", path, err)
		return loadFromEnv()
	}
	log.Printf("Loading configuration from %s", path)

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg
}

func loadFromEnv() *Config {
	var cfg Config

	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	cfg.DB.Driver = os.Getenv("DATABASE_DRIVER")
	cfg.DB.Host = os.Getenv("DATABASE_HOST")
	if port := os.Getenv("DATABASE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	cfg.DB.Database = os.Getenv("DATABASE_NAME")
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Archive.Bucket = os.Getenv("ARCHIVE_BUCKET")

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	log.Println("Configuration loaded from environment, some settings may be missing")
	return &cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_USERNAME"); v != "" {
		cfg.DB.Username = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.DB.Password = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && cfg.Archive.CredentialsFile == "" {
		cfg.Archive.CredentialsFile = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	cfg.Server.Addr = fmt.Sprintf(":%d", cfg.Server.Port)

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.DB.Driver == "" {
		cfg.DB.Driver = "mysql"
	}
	if cfg.DB.Charset == "" {
		cfg.DB.Charset = "utf8mb4"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.DSN == "" && cfg.DB.Host != "" {
		cfg.DB.DSN = buildDSN(cfg)
	}

	if cfg.Auth.SessionCookie == "" {
		cfg.Auth.SessionCookie = "sb-access-token"
	}

	if cfg.Providers.OpenAI.BaseURL == "" {
		cfg.Providers.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Providers.Anthropic.BaseURL == "" {
		cfg.Providers.Anthropic.BaseURL = "https://api.anthropic.com/v1"
	}
	if cfg.Providers.Anthropic.Version == "" {
		cfg.Providers.Anthropic.Version = "2023-06-01"
	}
	if cfg.Providers.Anthropic.MaxTokens <= 0 {
		cfg.Providers.Anthropic.MaxTokens = 4096
	}
	defaultTimeout(&cfg.Providers.OpenAI.TimeoutSec, 120)
	defaultTimeout(&cfg.Providers.Anthropic.TimeoutSec, 120)
	defaultTimeout(&cfg.Providers.Google.TimeoutSec, 120)

	if cfg.Resume.Identity == "" {
		cfg.Resume.Identity = "resume"
	}
	if cfg.Resume.BatchSize <= 0 {
		cfg.Resume.BatchSize = 20
	}
	if cfg.Resume.MaxSelected <= 0 {
		cfg.Resume.MaxSelected = 5
	}
	if cfg.Resume.MaxRetries <= 0 {
		cfg.Resume.MaxRetries = 5
	}
	if cfg.Resume.MaxReduceInput <= 0 {
		cfg.Resume.MaxReduceInput = 100
	}
	if cfg.Resume.MaxConcurrency <= 0 {
		cfg.Resume.MaxConcurrency = 5
	}

	if cfg.WordPress.PerPage <= 0 || cfg.WordPress.PerPage > 100 {
		cfg.WordPress.PerPage = 100
	}
	if cfg.WordPress.MaxPages <= 0 {
		cfg.WordPress.MaxPages = 10
	}
	defaultTimeout(&cfg.WordPress.TimeoutSec, 30)
	if cfg.WordPress.UserAgent == "" {
		cfg.WordPress.UserAgent = "kitai/1.0"
	}

	if cfg.Redis.TTLMin <= 0 {
		cfg.Redis.TTLMin = 60
	}
	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = "resumes"
	}
	if cfg.Scheduler.Cron == "" {
		cfg.Scheduler.Cron = "0 7 * * *"
	}
	if cfg.Scheduler.Timezone == "" {
		cfg.Scheduler.Timezone = "Europe/Madrid"
	}
	if cfg.Scheduler.Concurrency <= 0 {
		cfg.Scheduler.Concurrency = 2
	}

	defaultTimeout(&cfg.Timeouts.RequestSec, 30)
	defaultTimeout(&cfg.Timeouts.ResponseSec, 300)
	defaultTimeout(&cfg.Timeouts.IdleSec, 60)
}

func defaultTimeout(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func buildDSN(cfg *Config) string {
	if cfg.DB.Driver == "postgres" {
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.DB.Username,
			cfg.DB.Password,
			cfg.DB.Host,
			cfg.DB.Port,
			cfg.DB.Database,
			cfg.DB.SSLMode)
	}

	// repositories scan DATETIME columns into time.Time
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true",
		cfg.DB.Username,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Database,
		cfg.DB.Charset)
}
