package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/order-pricing/internal/ordertoken"
	"github.com/fjod/go_cart/order-pricing/internal/totals"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMongo    = "mongo"
)

type Config struct {
	HTTPPort        string        `mapstructure:"HTTP_PORT"`
	GRPCPort        string        `mapstructure:"GRPC_PORT"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`

	OrderTokenSecret string        `mapstructure:"ORDER_TOKEN_SECRET"`
	OrderTokenTTL    time.Duration `mapstructure:"ORDER_TOKEN_TTL"`

	CartStore      string `mapstructure:"CART_STORE"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         int    `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	SQLitePath     string `mapstructure:"SQLITE_PATH"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`
	MongoURI       string `mapstructure:"MONGO_URI"`
	MongoDBName    string `mapstructure:"MONGO_DB_NAME"`

	TaxRate     string `mapstructure:"PRICING_TAX_RATE"`
	DeliveryFee string `mapstructure:"PRICING_DELIVERY_FEE"`
	ServiceFee  string `mapstructure:"PRICING_SERVICE_FEE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	SingleUse     bool   `mapstructure:"ORDER_TOKEN_SINGLE_USE"`

	KafkaBrokers     string `mapstructure:"KAFKA_BROKERS"`
	KafkaIntentTopic string `mapstructure:"KAFKA_INTENT_TOPIC"`
}

var defaults = map[string]any{
	"HTTP_PORT":        "8080",
	"GRPC_PORT":        "50057",
	"REQUEST_TIMEOUT":  5 * time.Second,
	"SHUTDOWN_TIMEOUT": 10 * time.Second,
	"LOG_LEVEL":        "info",

	"ORDER_TOKEN_SECRET": "",
	"ORDER_TOKEN_TTL":    ordertoken.DefaultTTL,

	"CART_STORE":      StorePostgres,
	"DB_HOST":         "localhost",
	"DB_PORT":         5432,
	"DB_USER":         "postgres",
	"DB_PASSWORD":     "postgres",
	"DB_NAME":         "ecommerce",
	"SQLITE_PATH":     "order-pricing.db",
	"MIGRATIONS_PATH": "./internal/repository/migrations",
	"MONGO_URI":       "mongodb://localhost:27017",
	"MONGO_DB_NAME":   "cart_service",

	"PRICING_TAX_RATE":     "0",
	"PRICING_DELIVERY_FEE": "0",
	"PRICING_SERVICE_FEE":  "0",

	"REDIS_ADDR":             "",
	"REDIS_PASSWORD":         "",
	"ORDER_TOKEN_SINGLE_USE": false,

	"KAFKA_BROKERS":      "",
	"KAFKA_INTENT_TOPIC": "payment-intents",
}

// Load reads configuration from, in increasing priority: defaults, the
// file named by --config, environment variables and command line flags.
func Load(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("order-pricing", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to a config file (env, yaml or json)")
	flags.String("http-port", "", "HTTP listen port")
	flags.String("grpc-port", "", "gRPC health listen port")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("cart-store", "", "cart store backend (postgres, sqlite, mongo)")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, flag := range map[string]string{
		"HTTP_PORT":  "http-port",
		"GRPC_PORT":  "grpc-port",
		"LOG_LEVEL":  "log-level",
		"CART_STORE": "cart-store",
	} {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
			}
		}
	}
	v.AutomaticEnv()

	if *configPath != "" {
		v.SetConfigFile(*configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.OrderTokenSecret) < ordertoken.MinSecretLength {
		errs = append(errs, fmt.Errorf("ORDER_TOKEN_SECRET must be at least %d bytes", ordertoken.MinSecretLength))
	}
	if c.OrderTokenTTL < time.Second {
		errs = append(errs, errors.New("ORDER_TOKEN_TTL must be at least 1s"))
	}
	switch c.CartStore {
	case StorePostgres, StoreSQLite, StoreMongo:
	default:
		errs = append(errs, fmt.Errorf("unknown CART_STORE %q", c.CartStore))
	}
	if c.SingleUse && c.RedisAddr == "" {
		errs = append(errs, errors.New("ORDER_TOKEN_SINGLE_USE requires REDIS_ADDR"))
	}
	if _, err := c.PricingPolicy(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// PricingPolicy parses the configured tax rate and fees.
func (c *Config) PricingPolicy() (totals.FlatPolicy, error) {
	parse := func(key, raw string) (decimal.Decimal, error) {
		if strings.TrimSpace(raw) == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %w", key, err)
		}
		if d.IsNegative() {
			return decimal.Zero, fmt.Errorf("%s must not be negative", key)
		}
		return d, nil
	}

	tax, err := parse("PRICING_TAX_RATE", c.TaxRate)
	if err != nil {
		return totals.FlatPolicy{}, err
	}
	delivery, err := parse("PRICING_DELIVERY_FEE", c.DeliveryFee)
	if err != nil {
		return totals.FlatPolicy{}, err
	}
	service, err := parse("PRICING_SERVICE_FEE", c.ServiceFee)
	if err != nil {
		return totals.FlatPolicy{}, err
	}
	return totals.FlatPolicy{TaxRate: tax, DeliveryFee: delivery, ServiceFee: service}, nil
}

func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
