package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port                   string `env:"PORT" envDefault:"8080"`
	AppDomain              string `env:"APP_DOMAIN" envDefault:"http://localhost:4200"`
	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	UserFilesBucket   string `env:"USER_FILES_BUCKET"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`

	PushTimeout      time.Duration `env:"PUSH_TIMEOUT" envDefault:"5s"`
	DigestStartDelay time.Duration `env:"DIGEST_START_DELAY" envDefault:"10s"`
	DigestInterval   time.Duration `env:"DIGEST_INTERVAL" envDefault:"10m"`
	DigestCooldown   time.Duration `env:"DIGEST_COOLDOWN" envDefault:"23h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
