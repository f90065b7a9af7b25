package database

import (
	"context"
	"time"
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// CheckAll pings every dependency and returns the failures by name.
func CheckAll(ctx context.Context, timeout time.Duration, deps ...Pinger) map[string]string {
	failures := make(map[string]string)
	for _, d := range deps {
		if d == nil {
			continue
		}
		pctx, cancel := context.WithTimeout(ctx, timeout)
		if err := d.Ping(pctx); err != nil {
			failures[d.Name()] = err.Error()
		}
		cancel()
	}
	return failures
}
