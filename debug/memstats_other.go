//go:build !windows

package debug

import (
	"log/slog"
	"time"
)

// StartMemLogger is a no-op outside windows; RSS sampling uses psapi.
func StartMemLogger(time.Duration, *slog.Logger) {}
