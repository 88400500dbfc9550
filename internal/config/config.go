// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines the structure for all application configuration.
type Config struct {
	ExperimentName string         `yaml:"experiment_name"`
	ModelName      string         `yaml:"model_name"`
	OutputDir      string         `yaml:"output_dir"`
	Training       TrainingConfig `yaml:"training"`
	Server         ServerConfig   `yaml:"server"`
	Tracker        TrackerConfig  `yaml:"tracker"`
	Registry       RegistryConfig `yaml:"registry"`
	Cache          CacheConfig    `yaml:"cache"`
	Alert          AlertConfig    `yaml:"alert"`
	Database       DBConfig       `yaml:"-"` // Loaded from env
	LogLevel       string         `yaml:"-"` // Loaded from env or defaults
}

// TrainingConfig holds the hyperparameters shared by the trainers.
type TrainingConfig struct {
	TestRatio      float64    `yaml:"test_ratio"`
	Seed           int64      `yaml:"seed"`
	Regularization float64    `yaml:"regularization"`
	LearningRate   float64    `yaml:"learning_rate"`
	Epochs         int        `yaml:"epochs"`
	BatchSize      int        `yaml:"batch_size"`
	Tree           TreeConfig `yaml:"tree"`
}

// TreeConfig holds the decision tree hyperparameters.
type TreeConfig struct {
	MaxDepth       int    `yaml:"max_depth"` // 0 => no limit
	MinSamplesLeaf int    `yaml:"min_samples_leaf"`
	Criterion      string `yaml:"criterion"` // "gini" or "entropy"
}

// ServerConfig holds settings for the scoring service.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// TrackerConfig holds settings for the batched run-metric writer.
type TrackerConfig struct {
	BatchSize            int `yaml:"batch_size"`
	WriteIntervalSeconds int `yaml:"write_interval_seconds"`
}

// RegistryConfig holds settings for the model registry backend.
type RegistryConfig struct {
	Backend  string `yaml:"backend"` // "local" or "s3"
	Dir      string `yaml:"dir"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	CacheDir string `yaml:"cache_dir"`
	// AWS credentials are loaded from env, never from YAML.
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// CacheConfig holds settings for the Redis score cache.
type CacheConfig struct {
	Enabled    FlexBool `yaml:"enabled"`
	DB         int      `yaml:"db"`
	TTLSeconds int      `yaml:"ttl_seconds"`
	Addr       string   `yaml:"-"` // Loaded from env
}

// AlertConfig holds settings for training-quality alerts.
type AlertConfig struct {
	MinAUC     float64 `yaml:"min_auc"`
	WebhookURL string  `yaml:"-"` // Loaded from env
}

// DBConfig holds the run-tracking database connection settings.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// URL builds a pgx-compatible connection URL.
func (d DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Enabled reports whether a database has been configured at all.
func (d DBConfig) Enabled() bool {
	return d.Host != ""
}

// LoadConfig loads configuration from the specified YAML file path
// and environment variables. A missing .env file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ExperimentName: "diabetes-training",
		ModelName:      "diabetes_model",
		OutputDir:      "outputs",
		LogLevel:       "info",
		Training: TrainingConfig{
			TestRatio:      0.30,
			Seed:           0,
			Regularization: 0.01,
			LearningRate:   0.1,
			Epochs:         100,
			BatchSize:      64,
			Tree: TreeConfig{
				MinSamplesLeaf: 1,
				Criterion:      "gini",
			},
		},
		Server:   ServerConfig{Addr: ":8080"},
		Tracker:  TrackerConfig{BatchSize: 100, WriteIntervalSeconds: 1},
		Registry: RegistryConfig{Backend: "local", Dir: "models", CacheDir: "model-cache"},
		Cache:    CacheConfig{TTLSeconds: 300},
		Alert:    AlertConfig{MinAUC: 0},
		Database: DBConfig{Port: 5432, SSLMode: "disable"},
	}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, err
	}

	// Load sensitive data and overrides from environment variables
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		port, err := strconv.Atoi(dbPort)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_PORT %q: %w", dbPort, err)
		}
		cfg.Database.Port = port
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		cfg.Database.Password = dbPassword
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Database.Name = dbName
	}
	if sslMode := os.Getenv("DB_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.Addr = addr
	}
	if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" {
		cfg.Registry.AccessKey = key
	}
	if secret := os.Getenv("AWS_SECRET_ACCESS_KEY"); secret != "" {
		cfg.Registry.SecretKey = secret
	}
	if url := os.Getenv("ALERT_WEBHOOK_URL"); url != "" {
		cfg.Alert.WebhookURL = url
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Training.TestRatio <= 0 || c.Training.TestRatio >= 1 {
		return fmt.Errorf("training.test_ratio must be in (0, 1), got %v", c.Training.TestRatio)
	}
	if c.Training.Regularization <= 0 {
		return fmt.Errorf("training.regularization must be positive, got %v", c.Training.Regularization)
	}
	switch c.Registry.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("registry.backend must be \"local\" or \"s3\", got %q", c.Registry.Backend)
	}
	if c.Registry.Backend == "s3" && c.Registry.Bucket == "" {
		return fmt.Errorf("registry.bucket is required for the s3 backend")
	}
	if bool(c.Cache.Enabled) && c.Cache.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when cache.enabled is set")
	}
	return nil
}
