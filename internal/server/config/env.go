package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/agrocms/internal/flagx"
	"github.com/joho/godotenv"
)

// loadDotEnv loads the file named by -env, or ./.env when present. Variables
// already set in the process environment win.
func loadDotEnv(args []string) error {
	if path := flagx.EnvFile(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// parseEnv overlays any variables that are set.
func parseEnv(c *Config, lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = b
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = d
		}
	}
	integer := func(name string, dst *int64) {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}

	str("HTTP_ADDR", &c.HTTPAddr)
	duration("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)

	str("STORAGE", &c.Storage)
	str("DATABASE_URL", &c.DatabaseDSN)
	str("DATA_DIR", &c.DataDir)

	str("SESSION_STORE", &c.SessionStore)
	str("REDIS_URL", &c.RedisURL)
	str("SESSION_SECRET", &c.SessionSecret)
	duration("SESSION_TTL", &c.SessionTTL)
	duration("SESSION_SWEEP_INTERVAL", &c.SessionSweepInterval)
	boolean("COOKIE_SECURE", &c.CookieSecure)
	str("COOKIE_DOMAIN", &c.CookieDomain)

	str("LOG_FORMAT", &c.LogFormat)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)
	duration("LOG_MAX_AGE", &c.LogMaxAge)

	str("ADMIN_USERNAME", &c.AdminUsername)
	str("ADMIN_PASSWORD", &c.AdminPassword)
	boolean("SEED_SAMPLE_ARTICLES", &c.SeedSampleArticles)

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		c.CORSAllowedOrigins = splitList(v)
	}
	rate := int64(c.LoginRateLimit)
	integer("LOGIN_RATE_LIMIT", &rate)
	c.LoginRateLimit = int(rate)
	boolean("TRUST_PROXY", &c.TrustProxy)

	boolean("MEDIA_ENABLED", &c.MediaEnabled)
	integer("MAX_UPLOAD_BYTES", &c.MaxUploadBytes)
	str("S3_ROOT_USER", &c.S3RootUser)
	str("S3_ROOT_PASSWORD", &c.S3RootPassword)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_REGION", &c.S3Region)
	str("S3_BASE_ENDPOINT", &c.S3BaseEndpoint)
	str("S3_PUBLIC_BASE_URL", &c.S3PublicBaseURL)

	str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.OTLPEndpoint)
	str("OTEL_SERVICE_NAME", &c.ServiceName)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
