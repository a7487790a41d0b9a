package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	Redis        Redis        `envPrefix:"REDIS_"`
	Kafka        Kafka        `envPrefix:"KAFKA_"`
	Paystack     Paystack     `envPrefix:"PAYSTACK_"`
	Stripe       Stripe       `envPrefix:"STRIPE_"`
	Mailer       Mailer       `envPrefix:"POSTMARK_"`
	Notification Notification `envPrefix:"NOTIFICATION_"`
	Auth         Auth         `envPrefix:"AUTH_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Redis struct {
	Addr string `env:"ADDR" envDefault:"localhost:6379"`
}

type Kafka struct {
	Brokers []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	GroupID string   `env:"GROUP_ID" envDefault:"checkout-worker"`
	Workers int      `env:"WORKERS" envDefault:"4"`
}

type Paystack struct {
	BaseApiURL  string `env:"BASE_API_URL" envDefault:"https://api.paystack.co"`
	SecretKey   string `env:"SECRET_KEY"`
	CallbackURL string `env:"CALLBACK_URL"`
}

type Stripe struct {
	BaseApiURL string `env:"BASE_API_URL" envDefault:"https://api.stripe.com"`
	SecretKey  string `env:"SECRET_KEY"`
	SuccessURL string `env:"SUCCESS_URL"`
	CancelURL  string `env:"CANCEL_URL"`
}

type Mailer struct {
	BaseURL     string `env:"BASE_URL" envDefault:"https://api.postmarkapp.com"`
	ServerToken string `env:"SERVER_TOKEN"`
	FromEmail   string `env:"FROM_EMAIL"`
}

type Notification struct {
	Enabled    bool          `env:"SERVICE_ENABLED" envDefault:"false"`
	ServiceURL string        `env:"SERVICE_URL"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}
