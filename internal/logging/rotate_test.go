package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRotatingWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agrocms.log")
	w, err := NewRotatingWriter(path, 48*time.Hour)
	require.NoError(t, err)

	log, err := New(FormatJSON, "info", w)
	require.NoError(t, err)
	log.Info(context.Background(), "hello", "k", "v")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)

	matches, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
