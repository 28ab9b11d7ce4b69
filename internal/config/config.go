package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env-default:"local"`
	AppDomain  string `yaml:"app_domain" env-required:"true"`
	Tokens     `yaml:"tokens"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	Sessions   `yaml:"sessions"`
	Mailer     `yaml:"mailer"`
	HTTPServer `yaml:"http_server"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"password" env-required:"true"`
	DBName   string `yaml:"dbname" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type Redis struct {
	Addr     string `yaml:"addr" env-default:"localhost:6379"`
	Password string `yaml:"password" env-default:""`
	DB       int    `yaml:"db" env-default:"0"`
}

// Sessions selects the session store backend. Users always live in postgres;
// sessions can be kept in redis for cheap lookup by access token.
type Sessions struct {
	Backend string `yaml:"backend" env-default:"postgres"`
}

type Tokens struct {
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl" env-required:"true"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl" env-required:"true"`
	ResetTokenTTL    time.Duration `yaml:"reset_token_ttl" env-default:"5m"`
	ResetTokenSecret string        `yaml:"reset_token_secret" env-required:"true"`
}

// Mailer.Transport is either "smtp" (send directly) or "queue" (publish to
// rabbitmq for a separate sender worker).
type Mailer struct {
	Transport string `yaml:"transport" env-default:"smtp"`
	From      string `yaml:"from" env-required:"true"`
	SMTP      `yaml:"smtp"`
	RabbitMQ  `yaml:"rabbitmq"`
}

type SMTP struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"587"`
	Username string `yaml:"username" env-default:""`
	Password string `yaml:"password" env-default:""`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env-default:""`
	QueueName string `yaml:"queue_name" env-default:"emails"`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist" + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	return &cfg
}
