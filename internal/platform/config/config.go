// Package config reads the API configuration from the environment. Values come from, in rising
// precedence, a dotenv file, the process environment and an explicit map. Fields holding
// secret:// or sm:// references are resolved through a SecretResolver.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Store drivers accepted by API_STORE_DRIVER.
const (
	StoreDriverFirestore = "firestore"
	StoreDriverMemory    = "memory"
)

type Config struct {
	Server    ServerConfig
	Firebase  FirebaseConfig
	Firestore FirestoreConfig
	Store     StoreConfig
	Pricing   PricingConfig
	Features  FeatureFlags
	Checkout  CheckoutConfig
	Events    EventsConfig
	Admin     AdminConfig
	Security  SecurityConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// HealthProbeTimeout bounds each readiness probe.
	HealthProbeTimeout time.Duration
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	// CredentialsJSON holds an inline service account document, usually given as an sm:// reference.
	CredentialsJSON string
}

// FirestoreConfig falls back to the Firebase project when ProjectID is blank.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

type StoreConfig struct {
	Driver   string
	SeedFile string
}

// PricingConfig holds the pricing rules. Amounts are minor units; the env vars take major units.
type PricingConfig struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold int64
	FlatShippingFee       int64
	CODSurcharge          int64
	Currency              string
}

type FeatureFlags struct {
	AllowGuestCart   bool
	ReserveInventory bool
}

// CheckoutConfig controls how long checkout idempotency records are kept.
type CheckoutConfig struct {
	IdempotencyTTL        time.Duration
	CleanupInterval       time.Duration
	CleanupBatchSize      int
	IdempotencyCollection string
}

// EventsConfig names the Pub/Sub topic for order events. Blank disables publishing.
type EventsConfig struct {
	OrderTopic string
}

type AdminConfig struct {
	Emails            []string
	LowStockThreshold int
}

type SecurityConfig struct {
	Environment string
}

// ValidationError lists every field that was missing or failed to parse.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return "config validation failed: missing or invalid fields [" + strings.Join(e.fields, ", ") + "]"
}

func (e *ValidationError) Fields() []string {
	return append([]string(nil), e.fields...)
}

// Option customises Load and EnvironmentValues.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile         string
	envMap          map[string]string
	systemEnv       bool
	secrets         SecretResolver
	requiredSecrets []string
	panicOnMissing  bool
}

func newLoaderOptions(opts []Option) loaderOptions {
	o := loaderOptions{envFile: ".env", systemEnv: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithEnvFile sets the dotenv file. An empty path skips it; a missing file is ignored.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap supplies values that win over every other source.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.systemEnv = false }
}

func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) { o.secrets = resolver }
}

// WithRequiredSecrets names secret fields, such as "Firebase.CredentialsJSON", that must
// resolve to a non-empty value.
func WithRequiredSecrets(names ...string) Option {
	return func(o *loaderOptions) { o.requiredSecrets = append(o.requiredSecrets, names...) }
}

// WithPanicOnMissingSecrets makes Load panic with the *MissingSecretsError instead of returning it.
func WithPanicOnMissingSecrets() Option {
	return func(o *loaderOptions) { o.panicOnMissing = true }
}

// EnvironmentValues returns the merged key/value view Load reads from. main uses it to set up
// the secret fetcher before Load runs.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	return newLoaderOptions(opts).environment()
}

func (o loaderOptions) environment() (map[string]string, error) {
	values, err := readDotEnv(o.envFile)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = make(map[string]string)
	}
	if o.systemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if key = strings.TrimSpace(key); ok && key != "" {
				values[key] = value
			}
		}
	}
	for key, value := range o.envMap {
		values[key] = value
	}
	return values, nil
}

// Load reads, resolves and validates the configuration.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	o := newLoaderOptions(opts)
	values, err := o.environment()
	if err != nil {
		return Config{}, err
	}
	env := &source{values: values}

	cfg := Config{
		Server: ServerConfig{
			Port:               env.str("API_SERVER_PORT", "8080"),
			ReadTimeout:        env.duration("Server.ReadTimeout", "API_SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:       env.duration("Server.WriteTimeout", "API_SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:        env.duration("Server.IdleTimeout", "API_SERVER_IDLE_TIMEOUT", 2*time.Minute),
			HealthProbeTimeout: env.duration("Server.HealthProbeTimeout", "API_SERVER_HEALTH_PROBE_TIMEOUT", 1500*time.Millisecond),
		},
		Firebase: FirebaseConfig{
			ProjectID:       env.str("API_FIREBASE_PROJECT_ID", ""),
			CredentialsFile: env.str("API_FIREBASE_CREDENTIALS_FILE", ""),
			CredentialsJSON: env.str("API_FIREBASE_CREDENTIALS_JSON", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:    env.str("API_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: env.str("API_FIRESTORE_EMULATOR_HOST", ""),
		},
		Store: StoreConfig{
			Driver:   strings.ToLower(env.str("API_STORE_DRIVER", StoreDriverFirestore)),
			SeedFile: env.str("API_STORE_SEED_FILE", ""),
		},
		Pricing: PricingConfig{
			TaxRate:               env.rate("Pricing.TaxRate", "API_PRICING_TAX_RATE", "0.18"),
			FreeShippingThreshold: env.minor("Pricing.FreeShippingThreshold", "API_PRICING_FREE_SHIPPING_THRESHOLD", 50000),
			FlatShippingFee:       env.minor("Pricing.FlatShippingFee", "API_PRICING_FLAT_SHIPPING_FEE", 5000),
			CODSurcharge:          env.minor("Pricing.CODSurcharge", "API_PRICING_COD_SURCHARGE", 2500),
			Currency:              strings.ToUpper(env.str("API_PRICING_CURRENCY", "INR")),
		},
		Features: FeatureFlags{
			AllowGuestCart:   env.flag("Features.AllowGuestCart", "API_FEATURE_ALLOW_GUEST_CART"),
			ReserveInventory: env.flag("Features.ReserveInventory", "API_FEATURE_RESERVE_INVENTORY"),
		},
		Checkout: CheckoutConfig{
			IdempotencyTTL:        env.duration("Checkout.IdempotencyTTL", "API_CHECKOUT_IDEMPOTENCY_TTL", 24*time.Hour),
			CleanupInterval:       env.duration("Checkout.CleanupInterval", "API_CHECKOUT_IDEMPOTENCY_CLEANUP_INTERVAL", time.Hour),
			CleanupBatchSize:      env.integer("Checkout.CleanupBatchSize", "API_CHECKOUT_IDEMPOTENCY_CLEANUP_BATCH", 200),
			IdempotencyCollection: env.str("API_CHECKOUT_IDEMPOTENCY_COLLECTION", "idempotency_keys"),
		},
		Events: EventsConfig{
			OrderTopic: env.str("API_EVENTS_ORDER_TOPIC", ""),
		},
		Admin: AdminConfig{
			Emails:            env.lowerList("API_ADMIN_EMAILS"),
			LowStockThreshold: env.integer("Admin.LowStockThreshold", "API_ADMIN_LOW_STOCK_THRESHOLD", 10),
		},
		Security: SecurityConfig{
			Environment: env.str("API_SECURITY_ENVIRONMENT", "local"),
		},
	}
	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Firebase.ProjectID
	}

	resolved := make(map[string]string)
	for name, field := range map[string]*string{
		"Firebase.CredentialsJSON": &cfg.Firebase.CredentialsJSON,
	} {
		value, err := resolveSecret(ctx, *field, o.secrets)
		if err != nil {
			return Config{}, err
		}
		*field = value
		resolved[name] = strings.TrimSpace(value)
	}

	if invalid := validate(cfg, env.invalid); len(invalid) > 0 {
		return Config{}, &ValidationError{fields: invalid}
	}

	if missing := missingSecrets(o.requiredSecrets, resolved); missing != nil {
		if o.panicOnMissing {
			fmt.Fprintf(os.Stderr, "config: %v\n", missing)
			panic(missing)
		}
		return Config{}, missing
	}
	return cfg, nil
}

func validate(cfg Config, invalid []string) []string {
	fields := append([]string(nil), invalid...)
	check := func(ok bool, field string) {
		if !ok {
			fields = append(fields, field)
		}
	}

	check(cfg.Server.Port != "", "Server.Port")
	switch cfg.Store.Driver {
	case StoreDriverFirestore:
		check(cfg.Firebase.ProjectID != "", "Firebase.ProjectID")
		check(cfg.Firestore.ProjectID != "", "Firestore.ProjectID")
	case StoreDriverMemory:
	default:
		fields = append(fields, "Store.Driver")
	}
	check(!cfg.Pricing.TaxRate.IsNegative(), "Pricing.TaxRate")
	check(cfg.Pricing.FreeShippingThreshold >= 0, "Pricing.FreeShippingThreshold")
	check(cfg.Pricing.FlatShippingFee >= 0, "Pricing.FlatShippingFee")
	check(cfg.Pricing.CODSurcharge >= 0, "Pricing.CODSurcharge")
	check(len(cfg.Pricing.Currency) == 3, "Pricing.Currency")
	check(cfg.Checkout.IdempotencyTTL > 0, "Checkout.IdempotencyTTL")
	check(cfg.Checkout.CleanupInterval > 0, "Checkout.CleanupInterval")
	check(cfg.Checkout.CleanupBatchSize > 0, "Checkout.CleanupBatchSize")
	check(cfg.Checkout.IdempotencyCollection != "", "Checkout.IdempotencyCollection")
	check(cfg.Server.HealthProbeTimeout > 0, "Server.HealthProbeTimeout")
	check(cfg.Admin.LowStockThreshold >= 0, "Admin.LowStockThreshold")
	return fields
}
