package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret", "-t", "1h",
				"-storage", "file", "-data-dir", "/tmp/d", "-sessions", "redis", "-redis", "redis://r:6379",
				"-log-format", "text", "-log-level", "warn", "-log-file", "/var/log/agrocms.log",
				"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			},
			expected: &Config{
				HTTPAddr:       "127.0.0.1:9090",
				DatabaseDSN:    "db",
				SessionSecret:  "secret",
				SessionTTL:     time.Hour,
				Storage:        "file",
				DataDir:        "/tmp/d",
				SessionStore:   "redis",
				RedisURL:       "redis://r:6379",
				LogFormat:      "text",
				LogLevel:       "warn",
				LogFile:        "/var/log/agrocms.log",
				S3RootUser:     "user",
				S3RootPassword: "password",
				S3Bucket:       "bucket",
				S3Region:       "us-west-1",
				S3BaseEndpoint: "http://endpoint",
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-c", "cfg.json", "-env", ".env", "-a", ":1"},
			expected: &Config{HTTPAddr: ":1"},
		},
		{
			name:    "bad duration",
			args:    []string{"-t", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
