package logging

import (
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

// NewRotatingWriter appends to a dated file next to path, starting a new one
// every day and removing those older than maxAge. path itself is kept as a
// symlink to the current file.
func NewRotatingWriter(path string, maxAge time.Duration) (*rotatelogs.RotateLogs, error) {
	return rotatelogs.New(path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(maxAge),
	)
}
