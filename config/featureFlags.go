package config

import (
	"os"
	"strings"
)

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// OutboxDispatcherEnabled starts the production event dispatcher in the API process.
//
// Set via env:
// - OUTBOX_DISPATCHER_ENABLED=true
func OutboxDispatcherEnabled() bool {
	return envBool("OUTBOX_DISPATCHER_ENABLED")
}

// RedisAdvisoryLocksDisabled skips the redislock in front of the row locks.
//
// Set via env:
// - DISABLE_ADVISORY_LOCKS=true
func RedisAdvisoryLocksDisabled() bool {
	return envBool("DISABLE_ADVISORY_LOCKS")
}

// SkipMigrations leaves the schema untouched on startup.
//
// Set via env:
// - SKIP_MIGRATIONS=true
func SkipMigrations() bool {
	return envBool("SKIP_MIGRATIONS")
}
