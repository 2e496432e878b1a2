package config

import (
	"fmt"
	"log"
	"time"

	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Хранилище
	Store string `envconfig:"STORE" default:"postgres"`
	DBDSN string `envconfig:"DB_DSN"`

	// Админский HTTP API
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`
	JWTSecret string `envconfig:"JWT_SECRET"`

	// Telegram: админский бот и доставка уведомлений
	TelegramToken    string  `envconfig:"TELEGRAM_TOKEN"`
	AdminTelegramIDs []int64 `envconfig:"ADMIN_TELEGRAM_IDS"`

	// Платёжный шлюз
	GatewayURL        string        `envconfig:"GATEWAY_URL"`
	GatewayToken      string        `envconfig:"GATEWAY_TOKEN"`
	GatewayTimeout    time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`
	GatewayMaxRetries uint64        `envconfig:"GATEWAY_MAX_RETRIES" default:"2"`

	// Фоновые задачи
	SweepInterval          time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	BookingGracePeriod     time.Duration `envconfig:"BOOKING_GRACE_PERIOD" default:"5m"`
	ReconcileInterval      time.Duration `envconfig:"RECONCILE_INTERVAL" default:"1m"`
	DispatchInterval       time.Duration `envconfig:"DISPATCH_INTERVAL" default:"30s"`
	ReconciledPaymentTypes []string      `envconfig:"RECONCILED_PAYMENT_TYPES" default:"pix"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет обязательные поля и согласованность настроек
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}

	if c.SweepInterval <= 0 || c.ReconcileInterval <= 0 || c.DispatchInterval <= 0 {
		return fmt.Errorf("task intervals must be positive")
	}

	if c.BookingGracePeriod <= 0 {
		return fmt.Errorf("BOOKING_GRACE_PERIOD must be positive")
	}

	types, err := c.PaymentTypes()
	if err != nil {
		return err
	}
	for _, t := range types {
		if !t.IsElectronic() {
			return fmt.Errorf("payment type %q is not reconciled by the gateway", t)
		}
	}

	return nil
}

// PaymentTypes типы оплат, которые сверяются со шлюзом
func (c *Config) PaymentTypes() ([]model.PaymentType, error) {
	types := make([]model.PaymentType, 0, len(c.ReconciledPaymentTypes))
	for _, name := range c.ReconciledPaymentTypes {
		t, err := model.ParsePaymentType(name)
		if err != nil {
			return nil, fmt.Errorf("RECONCILED_PAYMENT_TYPES: %w", err)
		}
		types = append(types, t)
	}
	return types, nil
}

// GatewayEnabled - шлюз настроен
func (c *Config) GatewayEnabled() bool {
	return c.GatewayURL != ""
}
