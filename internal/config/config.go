// config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config del API (cmd/server)
type Config struct {
	Port             string        `env:"PORT" envDefault:"8080"`
	MongoURI         string        `env:"MONGO_URI" envDefault:"mongodb://host.docker.internal:27017"`
	MongoDBName      string        `env:"MONGO_DB_NAME" envDefault:"storefront_db"`
	RabbitURL        string        `env:"RABBIT_URL" envDefault:"amqp://host.docker.internal"`
	AuthURL          string        `env:"AUTH_SERVICE_URL" envDefault:"http://host.docker.internal:3000"`
	RefundGatewayURL string        `env:"REFUND_GATEWAY_URL"`
	SpinDailyLimit   int           `env:"SPIN_DAILY_LIMIT" envDefault:"3"`
	Timezone         string        `env:"TIMEZONE" envDefault:"Local"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	GinMode          string        `env:"GIN_MODE" envDefault:"release"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	TrustedProxies   []string      `env:"TRUSTED_PROXIES" envSeparator:","`
}

// NotifierConfig del worker de emails (cmd/notifier)
type NotifierConfig struct {
	RabbitURL      string `env:"RABBIT_URL" envDefault:"amqp://host.docker.internal"`
	DatabaseURL    string `env:"DATABASE_URL,required"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"file://db/migrations"`
	SMTPHost       string `env:"SMTP_HOST,required"`
	SMTPPort       string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser       string `env:"SMTP_USER"`
	SMTPPassword   string `env:"SMTP_PASSWORD"`
	MailFrom       string `env:"MAIL_FROM,required"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load lee .env (si existe) y luego las variables de entorno.
func Load() (*Config, error) {
	loadDotEnv()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.SpinDailyLimit <= 0 {
		return nil, fmt.Errorf("SPIN_DAILY_LIMIT must be positive, got %d", cfg.SpinDailyLimit)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadNotifier() (*NotifierConfig, error) {
	loadDotEnv()

	var cfg NotifierConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse notifier config: %w", err)
	}
	return &cfg, nil
}

// Location resuelve la zona horaria usada para calcular la medianoche local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded, using process environment")
	}
}

// SetupLogger configura logrus según el nivel pedido.
func SetupLogger(level string, json bool) {
	if json {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
