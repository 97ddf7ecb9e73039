package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env-default:"local"`
	JWTSecret  string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	RabbitMQ   `yaml:"rabbitmq"`
	SMTP       `yaml:"smtp"`
	PAAPI      `yaml:"paapi"`
	Sync       `yaml:"sync"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName   string `yaml:"dbname" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type Redis struct {
	Addr       string        `yaml:"addr" env-default:"redis:6379"`
	Db         int           `yaml:"db" env-default:"1"`
	DefaultTTL time.Duration `yaml:"default_ttl" env-default:"48h"`
}

type RabbitMQ struct {
	URL            string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	AlertsQueue    string `yaml:"alerts_queue" env-default:"price_sync_alerts"`
	WorkerPoolSize int    `yaml:"worker_pool_size" env-default:"10"`
}

type SMTP struct {
	Host       string   `yaml:"host" env-default:"localhost"`
	Port       int      `yaml:"port" env-default:"587"`
	User       string   `yaml:"user" env:"SMTP_USER"`
	Password   string   `yaml:"password" env:"SMTP_PASSWORD"`
	From       string   `yaml:"from" env-default:"alerts@localhost"`
	Recipients []string `yaml:"recipients"`
}

type PAAPI struct {
	Endpoint    string        `yaml:"endpoint" env-default:"https://webservices.amazon.com"`
	AccessKey   string        `yaml:"access_key" env:"PAAPI_ACCESS_KEY" env-required:"true"`
	SecretKey   string        `yaml:"secret_key" env:"PAAPI_SECRET_KEY" env-required:"true"`
	PartnerTag  string        `yaml:"partner_tag" env-required:"true"`
	Marketplace string        `yaml:"marketplace" env-default:"www.amazon.com"`
	Timeout     time.Duration `yaml:"timeout" env-default:"30s"`
}

type Sync struct {
	Interval       time.Duration `yaml:"interval" env-default:"24h"`
	BatchSize      int           `yaml:"batch_size" env-default:"10"`
	RequestsPerSec float64       `yaml:"requests_per_sec" env-default:"1"`
	MaxAttempts    int           `yaml:"max_attempts" env-default:"3"`
	InitialDelay   time.Duration `yaml:"initial_delay" env-default:"1s"`
	RunLockTTL     time.Duration `yaml:"run_lock_ttl" env-default:"15m"`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", configPath)
	}

	return &cfg
}
