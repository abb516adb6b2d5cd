package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	ATSecret          string `env:"AT_SECRET,required"`
	RTSecret          string `env:"RT_SECRET,required"`
	AccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	RefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"10080"`

	EmailVerificationEnabled bool   `env:"EMAIL_VERIFICATION_ENABLED" envDefault:"false"`
	MailEmail                string `env:"MAIL_EMAIL"`
	MailPassword             string `env:"MAIL_PASSWORD"`
	MailHost                 string `env:"MAIL_HOST"`
	MailPort                 int    `env:"MAIL_PORT" envDefault:"587"`
	MailSecure               bool   `env:"MAIL_SECURE" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	FortyTwoClientID     string `env:"FORTYTWO_CLIENT_ID"`
	FortyTwoClientSecret string `env:"FORTYTWO_CLIENT_SECRET"`
	FortyTwoRedirectURI  string `env:"FORTYTWO_REDIRECT_URI"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
