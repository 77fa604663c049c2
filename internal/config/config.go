package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	HTTPPort string `mapstructure:"HTTP_PORT"`

	MongoURI          string `mapstructure:"MONGO_URI"`
	MongoDBName       string `mapstructure:"MONGO_DB_NAME"`
	MongoTransactions bool   `mapstructure:"MONGO_TRANSACTIONS"`
	CartTTLDays       int    `mapstructure:"CART_TTL_DAYS"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CartCacheTTL  time.Duration `mapstructure:"CART_CACHE_TTL"`

	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`

	PaymentGatewayURL string        `mapstructure:"PAYMENT_GATEWAY_URL"`
	PaymentCurrency   string        `mapstructure:"PAYMENT_CURRENCY"`
	PaymentTimeout    time.Duration `mapstructure:"PAYMENT_TIMEOUT"`

	TaxPrice      float64 `mapstructure:"TAX_PRICE"`
	ShippingPrice float64 `mapstructure:"SHIPPING_PRICE"`

	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	MaxRequestBodySize int64         `mapstructure:"MAX_REQUEST_BODY_SIZE"`
}

var defaults = map[string]interface{}{
	"APP_ENV":               "production",
	"HTTP_PORT":             "8080",
	"MONGO_URI":             "mongodb://localhost:27017",
	"MONGO_DB_NAME":         "storefront",
	"MONGO_TRANSACTIONS":    false,
	"CART_TTL_DAYS":         90,
	"REDIS_ADDR":            "localhost:6379",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"CART_CACHE_TTL":        "15m",
	"KAFKA_BROKERS":         "",
	"KAFKA_TOPIC":           "order-events",
	"PAYMENT_GATEWAY_URL":   "",
	"PAYMENT_CURRENCY":      "egp",
	"PAYMENT_TIMEOUT":       "10s",
	"TAX_PRICE":             0.0,
	"SHIPPING_PRICE":        0.0,
	"REQUEST_TIMEOUT":       "30s",
	"SHUTDOWN_TIMEOUT":      "10s",
	"MAX_REQUEST_BODY_SIZE": 1 << 20,
}

// Load reads the environment, optionally layered over the file named by
// CONFIG_FILE (.env, yaml or json).
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.MongoDBName == "" {
		errs = append(errs, errors.New("MONGO_DB_NAME is required"))
	}
	if c.TaxPrice < 0 || c.ShippingPrice < 0 {
		errs = append(errs, errors.New("TAX_PRICE and SHIPPING_PRICE must not be negative"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLDays) * 24 * time.Hour
}

func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
