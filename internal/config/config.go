package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Providers struct {
		Sightengine struct {
			APIUser   string `yaml:"apiUser"`
			APISecret string `yaml:"apiSecret"`
		} `yaml:"sightengine"`
		HuggingFace struct {
			Token string `yaml:"token"`
		} `yaml:"huggingface"`
		Resemble struct {
			APIKey string `yaml:"apiKey"`
		} `yaml:"resemble"`
		Sapling struct {
			APIKey string `yaml:"apiKey"`
		} `yaml:"sapling"`
	} `yaml:"providers"`

	Limits struct {
		FreeDailyChecks  int     `yaml:"freeDailyChecks"`
		MaxVideoSeconds  float64 `yaml:"maxVideoSeconds"`
		FrameFPS         int     `yaml:"frameFPS"`
		ProviderTimeout  int     `yaml:"providerTimeoutSec"`
		FrameConcurrency int     `yaml:"frameConcurrency"`
	} `yaml:"limits"`

	// Auth maps tenant IDs to their API keys
	Auth struct {
		Keys map[string]string `yaml:"keys"`
	} `yaml:"auth"`
}

// Load reads config.yaml from disk
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Limits.FreeDailyChecks <= 0 {
		c.Limits.FreeDailyChecks = 10
	}
	if c.Limits.MaxVideoSeconds <= 0 {
		c.Limits.MaxVideoSeconds = 60
	}
	if c.Limits.FrameFPS <= 0 {
		c.Limits.FrameFPS = 1
	}
	if c.Limits.ProviderTimeout <= 0 {
		c.Limits.ProviderTimeout = 15
	}
	if c.Limits.FrameConcurrency <= 0 {
		c.Limits.FrameConcurrency = 5
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
}

// ProviderTimeout as a duration
func (c *Config) ProviderTimeoutDuration() time.Duration {
	return time.Duration(c.Limits.ProviderTimeout) * time.Second
}

// Helper to build MySQL DSN
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper to build Postgres DSN
func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}
