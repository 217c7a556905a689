package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timeouts, fixed currency, etc.)
// -----------------------------------------------------------------------------

type Config struct {
	App     AppConfig
	Server  ServerConfig
	DB      DBConfig
	CORS    CORSConfig
	Log     LogConfig
	JWT     JWTConfig
	Payment PaymentConfig
	Outbox  OutboxConfig
}

type AppConfig struct {
	// "production" tightens safety checks (e.g. missing webhook dedupe table is fatal)
	Environment string `envconfig:"APP_ENV" default:"development"`
}

func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02T15:04:05.000Z07:00"`
}

type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
}

// PaymentConfig carries the processor webhook secret plus the platform's
// default rates. Defaults only apply to bookings whose fee snapshot was never
// stored; a populated snapshot always wins.
type PaymentConfig struct {
	WebhookSecret           string        `envconfig:"PAYMENT_WEBHOOK_SECRET"`
	WebhookTolerance        time.Duration `envconfig:"PAYMENT_WEBHOOK_TOLERANCE" default:"5m"`
	Currency                string        `envconfig:"PAYMENT_CURRENCY" default:"usd"`
	ServiceFeePerNightCents int64         `envconfig:"SERVICE_FEE_PER_NIGHT_CENTS" default:"1000"`
	CleaningFeeCents        int64         `envconfig:"CLEANING_FEE_CENTS" default:"2000"`
	InsuranceStandardCents  int64         `envconfig:"INSURANCE_STANDARD_CENTS" default:"1500"`
	InsurancePremiumCents   int64         `envconfig:"INSURANCE_PREMIUM_CENTS" default:"4500"`
}

type OutboxConfig struct {
	PollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	BatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"50"`
	MaxAttempts  int           `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"5"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		App:    AppConfig{Environment: "test"},
		Server: ServerConfig{Port: "8889"},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Log: LogConfig{
			Level:      "error",
			TimeZone:   "UTC",
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		},
		JWT: JWTConfig{Secret: "test-secret"},
		Payment: PaymentConfig{
			WebhookSecret:           "whsec_test",
			WebhookTolerance:        5 * time.Minute,
			Currency:                "usd",
			ServiceFeePerNightCents: 1000,
			CleaningFeeCents:        2000,
			InsuranceStandardCents:  1500,
			InsurancePremiumCents:   4500,
		},
		Outbox: OutboxConfig{
			PollInterval: 50 * time.Millisecond,
			BatchSize:    10,
			MaxAttempts:  3,
		},
	}
}
