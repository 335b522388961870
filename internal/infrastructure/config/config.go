package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"associacao_pagamentos/internal/usecase"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingWebhookSecret       = errors.New("missing WEBHOOK_SECRET")
	ErrMissingJWTSecret           = errors.New("missing JWT_SECRET")
	ErrMissingProviderCredentials = errors.New("missing MERCADOPAGO_ACCESS_TOKEN or MERCADOPAGO_CLIENT_ID/MERCADOPAGO_CLIENT_SECRET")
	ErrInvalidPrice               = errors.New("consultation prices must be positive")
	ErrInvalidDurationPolicy      = errors.New("UNKNOWN_PLAN_DURATION_POLICY must be reject or monthly")
)

// Config is the process configuration, read from the environment. A .env file
// is loaded first by cmd/api.
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	WebhookSecret string `env:"WEBHOOK_SECRET"`
	JWTSecret     string `env:"JWT_SECRET"`

	GatewayMock            bool   `env:"PAYMENT_GATEWAY_MOCK"`
	MercadoPagoAccessToken string `env:"MERCADOPAGO_ACCESS_TOKEN"`
	MercadoPagoClientID    string `env:"MERCADOPAGO_CLIENT_ID"`
	MercadoPagoSecret      string `env:"MERCADOPAGO_CLIENT_SECRET"`
	MercadoPagoTokenURL    string `env:"MERCADOPAGO_TOKEN_URL"`
	NotificationURL        string `env:"MERCADOPAGO_NOTIFICATION_URL"`

	PaymentExpiration      time.Duration   `env:"PAYMENT_EXPIRATION" envDefault:"30m"`
	ProviderTimeout        time.Duration   `env:"PIX_PROVIDER_TIMEOUT" envDefault:"15s"`
	ConsultationPrice      decimal.Decimal `env:"CONSULTATION_PRICE" envDefault:"120.00"`
	FirstConsultationPrice decimal.Decimal `env:"FIRST_CONSULTATION_PRICE" envDefault:"150.00"`
	UnknownDurationPolicy  string          `env:"UNKNOWN_PLAN_DURATION_POLICY" envDefault:"reject"`

	SweepInterval  time.Duration `env:"EXPIRATION_SWEEP_INTERVAL" envDefault:"0s"`
	SweepBatchSize int32         `env:"EXPIRATION_SWEEP_BATCH" envDefault:"100"`

	NotificationQueueSize   int           `env:"NOTIFICATION_QUEUE_SIZE" envDefault:"256"`
	NotificationWorkers     int           `env:"NOTIFICATION_WORKERS" envDefault:"2"`
	NotificationSendTimeout time.Duration `env:"NOTIFICATION_SEND_TIMEOUT" envDefault:"10s"`
	NotificationTopic       string        `env:"NOTIFICATION_TOPIC" envDefault:"payment.confirmed"`
	KafkaBrokers            []string      `env:"KAFKA_BROKERS" envSeparator:","`

	CreateTables bool `env:"DYNAMODB_CREATE_TABLES"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	PlanCacheTTL  time.Duration `env:"PLAN_CACHE_TTL" envDefault:"15m"`
}

// Load parses the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.WebhookSecret) == "" {
		errs = append(errs, ErrMissingWebhookSecret)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if !c.GatewayMock && c.MercadoPagoAccessToken == "" && !c.UsesClientCredentials() {
		errs = append(errs, ErrMissingProviderCredentials)
	}
	if !c.ConsultationPrice.IsPositive() || !c.FirstConsultationPrice.IsPositive() {
		errs = append(errs, ErrInvalidPrice)
	}
	switch usecase.UnknownDurationPolicy(c.UnknownDurationPolicy) {
	case usecase.UnknownDurationReject, usecase.UnknownDurationMonthly:
	default:
		errs = append(errs, ErrInvalidDurationPolicy)
	}
	return errors.Join(errs...)
}

// UsesClientCredentials reports whether provider tokens are obtained through
// OAuth instead of a static access token.
func (c Config) UsesClientCredentials() bool {
	return c.MercadoPagoAccessToken == "" && c.MercadoPagoClientID != "" && c.MercadoPagoSecret != ""
}

func (c Config) ChargeConfig() usecase.ChargeConfig {
	return usecase.ChargeConfig{
		Expiration:             c.PaymentExpiration,
		ProviderTimeout:        c.ProviderTimeout,
		ConsultationPrice:      c.ConsultationPrice,
		FirstConsultationPrice: c.FirstConsultationPrice,
	}
}

func (c Config) DurationPolicy() usecase.UnknownDurationPolicy {
	return usecase.UnknownDurationPolicy(c.UnknownDurationPolicy)
}

func (c Config) Addr() string {
	return ":" + c.Port
}
