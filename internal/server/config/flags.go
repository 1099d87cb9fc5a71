package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/agrocms/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g. ":5000")
//	-d string          PostgreSQL DSN
//	-s string          session signing secret
//	-t duration        session lifetime (e.g. "168h")
//	-storage string    postgres | file
//	-data-dir string   directory of the file backing
//	-sessions string   auto | postgres | memory | redis
//	-redis string      Redis URL
//	-log-format string json | text | zap | zap-dev
//	-log-level string  debug | info | warn | error
//	-log-file string   rotating log file path
//	-u string          S3 root user
//	-p string          S3 root password
//	-b string          S3 bucket name
//	-g string          S3 region
//	-e string          S3 base endpoint
//
// Args are first filtered with flagx.FilterArgs so flags owned by other
// layers (-c, -env) do not trip the parser.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{
		"-a", "-d", "-s", "-t", "-storage", "-data-dir", "-sessions", "-redis",
		"-log-format", "-log-level", "-log-file", "-u", "-p", "-b", "-g", "-e",
	})

	fs := flag.NewFlagSet("agrocms", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session signing secret")
	fs.DurationVar(&config.SessionTTL, "t", config.SessionTTL, "session lifetime")

	fs.StringVar(&config.Storage, "storage", config.Storage, "storage backing")
	fs.StringVar(&config.DataDir, "data-dir", config.DataDir, "data directory of the file backing")
	fs.StringVar(&config.SessionStore, "sessions", config.SessionStore, "session store")
	fs.StringVar(&config.RedisURL, "redis", config.RedisURL, "redis URL")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFile, "log-file", config.LogFile, "rotating log file path")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	return fs.Parse(args)
}
