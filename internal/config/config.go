package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full process configuration, loaded from the environment.
// cmd/* binaries load a .env file first in dev, then Process fills this in.
type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:"shipslot.db"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"change-me-jwt-secret"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	OmisePublicKey string `envconfig:"OMISE_PUBLIC_KEY"`
	OmiseSecretKey string `envconfig:"OMISE_SECRET_KEY"`
	Currency       string `envconfig:"CURRENCY" default:"thb"`

	// Processor pass-through fee parameters, basis points and minor units.
	ProcessorFeeBps   int   `envconfig:"PROCESSOR_FEE_BPS" default:"290"`
	ProcessorFeeFixed int64 `envconfig:"PROCESSOR_FEE_FIXED" default:"30"`

	RabbitURL      string `envconfig:"RABBIT_URL"`
	NotifyExchange string `envconfig:"NOTIFY_EXCHANGE" default:"shipslot.notify"`

	LabelServiceURL string `envconfig:"LABEL_SERVICE_URL"`

	ImageDir       string `envconfig:"IMAGE_DIR" default:"./uploads"`
	ImageURLPrefix string `envconfig:"IMAGE_URL_PREFIX" default:"/uploads"`

	ExtraChargeTTL time.Duration `envconfig:"EXTRA_CHARGE_TTL" default:"72h"`
	SweepInterval  time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`

	OTLPEndpoint string `envconfig:"OTLP_ENDPOINT"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"shipslot-api"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
