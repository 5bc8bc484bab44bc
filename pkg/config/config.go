package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds every runtime setting of the CRM backend.
type Config struct {
	Environment string
	Port        string
	LogLevel    string

	// Database
	DBDriver          string // postgres | mysql | sqlite
	DatabaseURL       string
	SQLitePath        string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Tokens
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// OAuth
	GoogleClientID        string
	GoogleClientSecret    string
	MicrosoftClientID     string
	MicrosoftClientSecret string
	MicrosoftTenant       string
	BaseURL               string // used to build the provider callback URLs
	FrontendCallbackURL   string
	AdminEmails           []string

	// CORS
	AllowedOrigins []string

	// Redis (rate limiter, token revocation, invoice-number lock)
	RedisAddress  string
	RedisPassword string

	// Edge
	RateLimitRequests int
	RateLimitWindow   time.Duration
	MaxBodyBytes      int64

	// Booking documents
	DocumentStorage  string // s3 | local
	DocumentBucket   string
	DocumentLocalDir string
	AWSRegion        string

	ClaimPaymentTermsDays int

	// Printed on generated PDFs
	AgencyName    string
	AgencyAddress string
	AgencyEmail   string

	Debug bool
}

// LoadConfig reads the environment, after merging the .env file that matches ENVIRONMENT.
func LoadConfig() *Config {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	// godotenv.Load never overrides variables that are already set.
	switch env {
	case "production":
		_ = godotenv.Load(".env.production")
	default:
		_ = godotenv.Load(".env.local")
	}
	_ = godotenv.Load()

	config := &Config{
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
		Port:        getEnvWithDefault("PORT", "3000"),
		JWTSecret:   getEnvWithDefault("JWT_SECRET", defaultJWTSecret),
		Debug:       getEnvBool("DEBUG", false),
	}
	config.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	config.DBDriver = strings.ToLower(getEnvWithDefault("DB_DRIVER", "postgres"))
	config.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	config.SQLitePath = getEnvWithDefault("SQLITE_PATH", "venue-crm.db")
	config.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	config.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 10)
	config.DBConnMaxLifetime = time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second

	config.AccessTokenTTL = time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 15)) * time.Minute
	config.RefreshTokenTTL = time.Duration(getEnvInt("REFRESH_TOKEN_TTL_HOURS", 168)) * time.Hour

	config.GoogleClientID = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID"))
	config.GoogleClientSecret = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET"))
	config.MicrosoftClientID = strings.TrimSpace(os.Getenv("MICROSOFT_CLIENT_ID"))
	config.MicrosoftClientSecret = strings.TrimSpace(os.Getenv("MICROSOFT_CLIENT_SECRET"))
	config.MicrosoftTenant = getEnvWithDefault("MICROSOFT_TENANT", "common")
	config.BaseURL = strings.TrimRight(getEnvWithDefault("BASE_URL", "http://localhost:"+config.Port), "/")
	config.FrontendCallbackURL = getEnvWithDefault("FRONTEND_CALLBACK_URL", "http://localhost:5173/auth/callback")
	config.AdminEmails = splitList(os.Getenv("ADMIN_EMAILS"))

	allowedOrigins := getEnvWithDefault("ALLOWED_ORIGINS", "*")
	if allowedOrigins == "*" {
		config.AllowedOrigins = []string{"*"}
	} else {
		config.AllowedOrigins = splitList(allowedOrigins)
	}

	config.RedisAddress = strings.TrimSpace(os.Getenv("REDIS_ADDRESS"))
	config.RedisPassword = os.Getenv("REDIS_PASSWORD")

	config.RateLimitRequests = getEnvInt("RATE_LIMIT_REQUESTS", 100)
	config.RateLimitWindow = time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	config.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", 10<<20))

	config.DocumentStorage = strings.ToLower(getEnvWithDefault("DOCUMENT_STORAGE", "local"))
	config.DocumentBucket = os.Getenv("DOCUMENT_BUCKET")
	config.DocumentLocalDir = getEnvWithDefault("DOCUMENT_LOCAL_DIR", "uploads")
	config.AWSRegion = getEnvWithDefault("AWS_REGION", getEnvWithDefault("AWS_DEFAULT_REGION", "eu-west-1"))

	config.ClaimPaymentTermsDays = getEnvInt("CLAIM_PAYMENT_TERMS_DAYS", 30)

	config.AgencyName = getEnvWithDefault("AGENCY_NAME", "Venue Finding Agency")
	config.AgencyAddress = os.Getenv("AGENCY_ADDRESS")
	config.AgencyEmail = os.Getenv("AGENCY_EMAIL")

	if config.Environment == "production" {
		config.Debug = false
	}
	if config.Debug && os.Getenv("LOG_LEVEL") == "" {
		config.LogLevel = "debug"
	}

	return config
}

var (
	cachedConfig *Config
	configOnce   sync.Once
)

// GetCached returns the process-wide Config. On serverless it is built once per cold start.
func GetCached() *Config {
	configOnce.Do(func() {
		cachedConfig = LoadConfig()
		ConfigureLogger(cachedConfig)
	})
	return cachedConfig
}

// Validate reports settings the process cannot run without.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		GetLogger().Warn("using default JWT secret")
	}

	switch c.DBDriver {
	case "sqlite":
	case "postgres", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for driver %q", c.DBDriver)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.DocumentStorage == "s3" && c.DocumentBucket == "" {
		return fmt.Errorf("DOCUMENT_BUCKET is required when DOCUMENT_STORAGE=s3")
	}

	return nil
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment reports whether ENVIRONMENT is development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
