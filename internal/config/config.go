package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	Secret     string        `mapstructure:"secret"`
	DBPath     string        `mapstructure:"db_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	RoomCodeLength  int `mapstructure:"room_code_length"`
	ChatIDLength    int `mapstructure:"chat_id_length"`
	CodeMaxAttempts int `mapstructure:"code_max_attempts"`
	// HistoryLimit caps the per-room replay buffer; 0 keeps it unbounded.
	HistoryLimit int `mapstructure:"history_limit"`

	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FeedbackTo   string `mapstructure:"feedback_to"`
}

func Load() (*Config, error) {
	// .env first so SMTP credentials stay out of the yaml files.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("secret", "change-me")
	v.SetDefault("db_path", "./data/logs.db")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("room_code_length", 4)
	v.SetDefault("chat_id_length", 5)
	v.SetDefault("code_max_attempts", 100)
	v.SetDefault("history_limit", 0)
	v.SetDefault("smtp_port", 465)

	v.BindEnv("smtp_username", "SMTP_USERNAME")
	v.BindEnv("smtp_password", "SMTP_PASSWORD")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | DB: %s\n", cfg.Mode, cfg.Port, cfg.DBPath)
	return &cfg, nil
}
