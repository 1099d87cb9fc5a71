package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/agrocms/internal/flagx"
	"github.com/dmitrijs2005/agrocms/internal/timex"
)

// JsonConfig is the on-disk shape of the -config file. Durations accept
// strings such as "24h" or integer nanoseconds. Absent keys leave the
// current value alone.
type JsonConfig struct {
	HTTPAddr        string          `json:"http_addr"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`

	Storage     string `json:"storage"`
	DatabaseDSN string `json:"database_dsn"`
	DataDir     string `json:"data_dir"`

	SessionStore         string          `json:"session_store"`
	RedisURL             string          `json:"redis_url"`
	SessionSecret        string          `json:"session_secret"`
	SessionTTL           *timex.Duration `json:"session_ttl"`
	SessionSweepInterval *timex.Duration `json:"session_sweep_interval"`
	CookieSecure         *bool           `json:"cookie_secure"`
	CookieDomain         string          `json:"cookie_domain"`

	LogFormat string          `json:"log_format"`
	LogLevel  string          `json:"log_level"`
	LogFile   string          `json:"log_file"`
	LogMaxAge *timex.Duration `json:"log_max_age"`

	AdminUsername      string `json:"admin_username"`
	AdminPassword      string `json:"admin_password"`
	SeedSampleArticles *bool  `json:"seed_sample_articles"`

	CORSAllowedOrigins []string `json:"cors_allowed_origins"`
	LoginRateLimit     *int     `json:"login_rate_limit"`
	TrustProxy         *bool    `json:"trust_proxy"`

	MediaEnabled    *bool  `json:"media_enabled"`
	MaxUploadBytes  *int64 `json:"max_upload_bytes"`
	S3RootUser      string `json:"s3_root_user"`
	S3RootPassword  string `json:"s3_root_password"`
	S3Bucket        string `json:"s3_bucket"`
	S3Region        string `json:"s3_region"`
	S3BaseEndpoint  string `json:"s3_base_endpoint"`
	S3PublicBaseURL string `json:"s3_public_base_url"`

	OTLPEndpoint string `json:"otlp_endpoint"`
	ServiceName  string `json:"service_name"`
}

// parseJson overlays the file named by -c/-config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)

	setString(&config.Storage, c.Storage)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DataDir, c.DataDir)

	setString(&config.SessionStore, c.SessionStore)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.SessionSecret, c.SessionSecret)
	setDuration(&config.SessionTTL, c.SessionTTL)
	setDuration(&config.SessionSweepInterval, c.SessionSweepInterval)
	setPtr(&config.CookieSecure, c.CookieSecure)
	setString(&config.CookieDomain, c.CookieDomain)

	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFile, c.LogFile)
	setDuration(&config.LogMaxAge, c.LogMaxAge)

	setString(&config.AdminUsername, c.AdminUsername)
	setString(&config.AdminPassword, c.AdminPassword)
	setPtr(&config.SeedSampleArticles, c.SeedSampleArticles)

	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
	setPtr(&config.LoginRateLimit, c.LoginRateLimit)
	setPtr(&config.TrustProxy, c.TrustProxy)

	setPtr(&config.MediaEnabled, c.MediaEnabled)
	setPtr(&config.MaxUploadBytes, c.MaxUploadBytes)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)

	setString(&config.OTLPEndpoint, c.OTLPEndpoint)
	setString(&config.ServiceName, c.ServiceName)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
