package audit

import (
	"fmt"
	"os"
	"time"
)

// LoadConfigFromEnv builds Config from the environment, reading the DSN
// from dsnEnv (the environment variable name configured for the audit
// store, e.g. "POLITELY_AUDIT_DSN").
func LoadConfigFromEnv(dsnEnv string) (Config, error) {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		return Config{}, fmt.Errorf("audit dsn env var %q is empty", dsnEnv)
	}
	return Config{
		DSN:             dsn,
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
	}, nil
}
