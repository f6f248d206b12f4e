package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type FilesConfig struct {
	RootDir string `yaml:"root_dir"`
}

type JWTConfig struct {
	SecretKey string `yaml:"secret_key"`
	// Lifetime in seconds. Effective value is 12000 (200 minutes).
	ExpireSeconds int    `yaml:"expire_seconds"`
	Issuer        string `yaml:"issuer"`
	Audience      string `yaml:"audience"`
}

type VerificationConfig struct {
	CodeLength    int `yaml:"code_length"`
	ExpireMinutes int `yaml:"expire_minutes"`
	MaxAttempts   int `yaml:"max_attempts"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`
	JWT          JWTConfig          `yaml:"jwt"`
	Verification VerificationConfig `yaml:"verification"`
	Files        FilesConfig        `yaml:"files"`
}

func LoadConfig() *Config {
	// .env is optional; values set there override config.yaml
	_ = godotenv.Load()

	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.SecretKey = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.SMTPPassword = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}

	if cfg.Files.RootDir == "" {
		cfg.Files.RootDir = "./public"
	}
	if cfg.JWT.ExpireSeconds <= 0 {
		cfg.JWT.ExpireSeconds = 12000
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "ManShanSpace"
	}
	if cfg.JWT.Audience == "" {
		cfg.JWT.Audience = "ManShanSpaceUsers"
	}
	if cfg.Verification.CodeLength <= 0 {
		cfg.Verification.CodeLength = 6
	}
	if cfg.Verification.ExpireMinutes <= 0 {
		cfg.Verification.ExpireMinutes = 10
	}
	if cfg.Verification.MaxAttempts <= 0 {
		cfg.Verification.MaxAttempts = 3
	}
	return &cfg
}
