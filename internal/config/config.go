package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Database       Database       `envPrefix:"DB_"`
	Auth           Auth           `envPrefix:"AUTH_"`
	PaymentGateway PaymentGateway `envPrefix:"PAYMENT_GATEWAY_"`
	RabbitMQ       RabbitMQ       `envPrefix:"RABBITMQ_"`
}

type Database struct {
	Driver       string `env:"DRIVER" envDefault:"sqlite"` // sqlite, mysql, postgres
	URL          string `env:"URL" envDefault:"storefront.db"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"50"`
	Seed         bool   `env:"SEED" envDefault:"false"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type PaymentGateway struct {
	BaseApiURL    string        `env:"BASE_API_URL" envDefault:"https://api.paystack.co"`
	SecretKey     string        `env:"SECRET_KEY"`
	WebhookSecret string        `env:"WEBHOOK_SECRET"`
	Currency      string        `env:"CURRENCY" envDefault:"NGN"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type RabbitMQ struct {
	URL      string `env:"URL"`
	Exchange string `env:"EXCHANGE" envDefault:"storefront.events"`
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
