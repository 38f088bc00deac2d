package runner

import (
	"fmt"
	"strings"
	"time"
)

// ConfigError reports an invalid run configuration. It is returned before
// any worker or sampler starts; a refused run performs no I/O.
type ConfigError struct {
	issues []string
}

func (e *ConfigError) Error() string {
	if len(e.issues) == 0 {
		return "invalid run configuration"
	}
	return fmt.Sprintf("invalid run configuration: %s", strings.Join(e.issues, "; "))
}

func (e *ConfigError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// JoinTimeoutError means a worker or the sampler failed to exit within the
// grace period after cancellation. This indicates a stuck blocking call or
// a cancellation-check bug, not a network condition, and is fatal.
type JoinTimeoutError struct {
	Grace time.Duration
}

func (e *JoinTimeoutError) Error() string {
	return fmt.Sprintf("run tasks did not exit within %s after cancellation", e.Grace)
}
