package resilience

import (
	"context"
	"time"
)

// Pause blocks for d. It returns false when ctx ends the wait early; callers
// decide whether an interrupted pause still counts as waited.
func Pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
