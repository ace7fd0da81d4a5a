package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config concentra toda la configuración del servicio.
// Todo viene de env vars; .env es opcional (solo dev).
type Config struct {
	Addr    string `env:"LISTEN_ADDR" envDefault:":8080"`
	AppName string `env:"APP_NAME" envDefault:"pet-vet-link"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // text|json

	// Si DSN viene vacío, el router cae a repos in-memory (modo dev).
	DSN string `env:"DB_DSN"`

	// TTL de invitaciones pendientes antes de pasar a "expirado".
	InviteTTLDays int `env:"INVITE_TTL_DAYS" envDefault:"30"`

	// Intervalo del janitor (expiración + reconciliación de relaciones).
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"1h"`

	// URL pública base para armar links de aceptación en los emails.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	SMTP  SMTPConfig  `envPrefix:"SMTP_"`
	Media MediaConfig `envPrefix:"MEDIA_"`
	Odin  OdinConfig  `envPrefix:"ODIN_"`
}

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"no-reply@pet-vet-link.local"`
	// Solo para entornos de prueba con certificados self-signed.
	SkipInsecure bool `env:"SKIP_INSECURE" envDefault:"false"`
}

func (c SMTPConfig) IsConfigured() bool {
	return c.Host != ""
}

type MediaConfig struct {
	BaseURL string        `env:"BASE_URL"`
	APIKey  string        `env:"API_KEY"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

type OdinConfig struct {
	BaseURL string `env:"BASE_URL"`
	APIKey  string `env:"API_KEY"`
}

// Parse carga .env (si existe) y parsea env vars.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	if cfg.InviteTTLDays <= 0 {
		cfg.InviteTTLDays = 30
	}
	return cfg, nil
}
