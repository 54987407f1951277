package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName      string
	AppEnv       string
	AppURL       string // Public base URL, used for email and hand-off links
	Port         string
	SupportEmail string
	ContentPath  string
	WebDir       string // Optional: pre-built web client served for non-API paths

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret      string
	JWTExpiry      time.Duration
	CookieSecure   bool
	AdminEmail     string
	TrustedOrigins []string
	TrustedProxies []string // IPs or CIDRs whose X-Forwarded-For is believed

	// Rate limiting: credential endpoints, and identity uploads on their own
	// budget so document retakes never compete with logins
	RateLimitAuth   int
	RateLimitUpload int
	RateLimitWindow time.Duration

	// Identity hand-off
	HandoffTokenTTL     time.Duration // 0 = token never expires
	HandoffPollInterval time.Duration
	HandoffWaitMax      time.Duration
	QRRenderURL         string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	// Identity images are stored inline in the user row when S3Bucket is empty.
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PresignExpiry time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:      envString("APP_NAME", "Brickfund"),
		AppEnv:       envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:       strings.TrimSuffix(envRequired("APP_URL"), "/"),
		Port:         envString("PORT", "8090"),
		SupportEmail: envString("SUPPORT_EMAIL", "contacto@brickfund.cl"),
		ContentPath:  envString("CONTENT_PATH", "content"),
		WebDir:       envString("WEB_DIR", ""),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/brickfund.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),

		// Security
		JWTSecret:      envRequired("JWT_SECRET"),
		JWTExpiry:      envDuration("JWT_EXPIRY", 1*time.Hour),
		CookieSecure:   envBool("COOKIE_SECURE", envString("APP_ENV", "development") == "production"),
		AdminEmail:     strings.ToLower(envString("ADMIN_EMAIL", "admin@brickfund.cl")),
		TrustedOrigins: envList("TRUSTED_ORIGINS"),
		TrustedProxies: envList("TRUSTED_PROXIES"),

		RateLimitAuth:   envInt("RATE_LIMIT_AUTH", 10),
		RateLimitUpload: envInt("RATE_LIMIT_UPLOAD", 30),
		RateLimitWindow: envDuration("RATE_LIMIT_WINDOW", 15*time.Minute),

		// Identity hand-off
		HandoffTokenTTL:     envDuration("HANDOFF_TOKEN_TTL", 0),
		HandoffPollInterval: envDuration("HANDOFF_POLL_INTERVAL", 3*time.Second),
		HandoffWaitMax:      envDuration("HANDOFF_WAIT_MAX", 30*time.Second),
		QRRenderURL:         envString("QR_RENDER_URL", "https://api.qrserver.com/v1/create-qr-code/?size=240x240"),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@brickfund.cl"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 15*time.Minute),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development falls back to logging emails instead of sending them.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if len(cfg.JWTSecret) < 32 {
		slog.Error("production deployment requires a JWT_SECRET of at least 32 characters")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// StorageEnabled reports whether identity images go to object storage.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}
