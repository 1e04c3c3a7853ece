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

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type OpsConfig struct {
	Port int `yaml:"port"` // health + metrics listener
}

type PushConfig struct {
	AppID          string `yaml:"app_id"`
	APIKey         string `yaml:"api_key"`
	URL            string `yaml:"url"`
	EmergencySound string `yaml:"emergency_sound"`
	NormalSound    string `yaml:"normal_sound"`
}

type SMSConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Sender string `yaml:"sender"`
}

type MailConfig struct {
	URL       string `yaml:"url"`
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// BookingConfig carries the business-policy knobs of the booking core.
type BookingConfig struct {
	ImmediateGrace time.Duration `yaml:"immediate_grace"` // scheduling window for immediate jobs
	NightStartHour int           `yaml:"night_start_hour"`
	NightEndHour   int           `yaml:"night_end_hour"`
	SupportPhone   string        `yaml:"support_phone"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	RemindWindow   time.Duration `yaml:"remind_window"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Ops      OpsConfig      `yaml:"ops"`
	Push     PushConfig     `yaml:"push"`
	SMS      SMSConfig      `yaml:"sms"`
	Mail     MailConfig     `yaml:"mail"`
	Booking  BookingConfig  `yaml:"booking"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(configPath string, dev bool) (*Config, error) {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)

	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Ops.Port <= 0 {
		cfg.Ops.Port = 8081
	}
	if cfg.Booking.ImmediateGrace <= 0 {
		cfg.Booking.ImmediateGrace = 5 * time.Minute
	}
	if cfg.Booking.NightStartHour <= 0 {
		cfg.Booking.NightStartHour = 21
	}
	if cfg.Booking.NightEndHour <= 0 {
		cfg.Booking.NightEndHour = 9
	}
	if cfg.Booking.SweepInterval <= 0 {
		cfg.Booking.SweepInterval = time.Minute
	}
	if cfg.Booking.RemindWindow <= 0 {
		cfg.Booking.RemindWindow = time.Hour
	}
	if cfg.Push.EmergencySound == "" {
		cfg.Push.EmergencySound = "emergency_booking"
	}
	if cfg.Push.NormalSound == "" {
		cfg.Push.NormalSound = "normal_booking"
	}
}
