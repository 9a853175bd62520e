package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/geotsn/aggeliesergasias/internal/checkout"
	"github.com/geotsn/aggeliesergasias/internal/listing"
	"github.com/geotsn/aggeliesergasias/internal/payment"
	"github.com/geotsn/aggeliesergasias/internal/reconcile"
	"github.com/geotsn/aggeliesergasias/internal/store"
)

// EnvConfigFile names the environment variable holding a config file path.
const EnvConfigFile = "JOBBOARD_CONFIG"

// Store drivers.
const (
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Supabase  SupabaseConfig  `mapstructure:"supabase"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	Listing   ListingConfig   `mapstructure:"listing"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	PublicURL    string `mapstructure:"public_url"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Table  string `mapstructure:"table"`
	// Timeout caps each Supabase request; postgrest-go cannot be canceled.
	Timeout time.Duration `mapstructure:"timeout"`
}

type SupabaseConfig struct {
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	// PaymentLink, when set, replaces API-created sessions with a static
	// hosted link carrying the reference as client_reference_id.
	PaymentLink string        `mapstructure:"payment_link"`
	Currency    string        `mapstructure:"currency"`
	PriceCents  int64         `mapstructure:"price_cents"`
	ProductName string        `mapstructure:"product_name"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type ListingConfig struct {
	FreeDays    int           `mapstructure:"free_days"`
	PremiumDays int           `mapstructure:"premium_days"`
	LocalShift  time.Duration `mapstructure:"local_shift"`
}

type ReconcileConfig struct {
	Window    time.Duration `mapstructure:"window"`
	Interval  time.Duration `mapstructure:"interval"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Workers   int           `mapstructure:"workers"`
	PageLimit int64         `mapstructure:"page_limit"`
}

type AdminConfig struct {
	Token string `mapstructure:"token"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers a default for every key. Keys without a default are
// invisible to Unmarshal, so secrets default to the empty string.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.public_url", "http://localhost:5173")
	v.SetDefault("server.allow_origins", "*")

	v.SetDefault("store.driver", DriverSupabase)
	v.SetDefault("store.table", "jobs")
	v.SetDefault("store.timeout", store.DefaultRequestTimeout)

	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.service_key", "")
	v.SetDefault("database.url", "")

	pricing := checkout.DefaultPricing()
	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.payment_link", "")
	v.SetDefault("stripe.currency", pricing.Currency)
	v.SetDefault("stripe.price_cents", pricing.AmountCents)
	v.SetDefault("stripe.product_name", pricing.ProductName)
	v.SetDefault("stripe.timeout", 30*time.Second)

	v.SetDefault("listing.free_days", 10)
	v.SetDefault("listing.premium_days", 30)
	v.SetDefault("listing.local_shift", 2*time.Hour)

	rc := reconcile.DefaultConfig()
	v.SetDefault("reconcile.window", rc.Window)
	v.SetDefault("reconcile.interval", 10*time.Minute)
	v.SetDefault("reconcile.timeout", rc.Timeout)
	v.SetDefault("reconcile.workers", rc.Workers)
	v.SetDefault("reconcile.page_limit", 100)

	v.SetDefault("admin.token", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads .env (if present), then defaults, the optional config file and
// the environment, in increasing precedence. An empty path falls back to
// $JOBBOARD_CONFIG. The result is validated.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "loading .env")
	}

	v := viper.New()
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", path)
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates an already populated viper instance.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSupabase:
		if c.Supabase.URL == "" || c.Supabase.ServiceKey == "" {
			return errors.New("supabase.url and supabase.service_key are required for the supabase store")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres store")
		}
	case DriverMemory:
	default:
		return errors.Newf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Store.Timeout < 0 {
		return errors.New("store.timeout must not be negative")
	}

	if c.Stripe.PriceCents <= 0 {
		return errors.New("stripe.price_cents must be positive")
	}
	if c.Listing.FreeDays <= 0 || c.Listing.PremiumDays <= 0 {
		return errors.New("listing.free_days and listing.premium_days must be positive")
	}
	if c.Listing.LocalShift < 0 {
		return errors.New("listing.local_shift must not be negative")
	}
	if c.Reconcile.Window <= 0 || c.Reconcile.Interval <= 0 || c.Reconcile.Timeout <= 0 {
		return errors.New("reconcile.window, reconcile.interval and reconcile.timeout must be positive")
	}
	if c.Reconcile.Workers <= 0 {
		return errors.New("reconcile.workers must be positive")
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return errors.Newf("unknown log.format %q", c.Log.Format)
	}
	return nil
}

// RequireStripe is checked by the commands that talk to the payment provider.
func (c *Config) RequireStripe() error {
	if c.Stripe.SecretKey == "" {
		return errors.New("stripe.secret_key is required")
	}
	return nil
}

// RequireWebhook is checked before mounting the webhook endpoint.
func (c *Config) RequireWebhook() error {
	if c.Stripe.WebhookSecret == "" {
		return errors.New("stripe.webhook_secret is required")
	}
	return nil
}

// Policy converts the listing settings into a lifecycle policy.
func (c *Config) Policy() listing.Policy {
	return listing.Policy{
		FreeDuration:    time.Duration(c.Listing.FreeDays) * 24 * time.Hour,
		PremiumDuration: time.Duration(c.Listing.PremiumDays) * 24 * time.Hour,
		LocalShift:      c.Listing.LocalShift,
	}
}

// Pricing converts the stripe settings into the premium line item.
func (c *Config) Pricing() checkout.Pricing {
	return checkout.Pricing{
		ProductName: c.Stripe.ProductName,
		AmountCents: c.Stripe.PriceCents,
		Currency:    c.Stripe.Currency,
	}
}

// SweepConfig converts the reconcile settings.
func (c *Config) SweepConfig() reconcile.Config {
	return reconcile.Config{
		Window:  c.Reconcile.Window,
		Timeout: c.Reconcile.Timeout,
		Workers: c.Reconcile.Workers,
	}
}

// StripeProviderConfig converts the stripe settings for the payment provider.
func (c *Config) StripeProviderConfig() payment.StripeConfig {
	return payment.StripeConfig{
		SecretKey:     c.Stripe.SecretKey,
		WebhookSecret: c.Stripe.WebhookSecret,
		Timeout:       c.Stripe.Timeout,
		PageLimit:     c.Reconcile.PageLimit,
	}
}
