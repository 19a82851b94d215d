// Package config loads the environment-variable configuration shared by
// the Nexus, Worker, and front-door binaries, following the
// godotenv+flag+os.Getenv convention of indexers/pcx/cmd/server/main.go.
// A missing required variable is the ConfigMissing error kind from
// spec.md §7: the caller is expected to log.Fatalf and exit non-zero.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Load reads an optional .env file (ignored if absent, matching
// godotenv.Load's behavior in the teacher's main()) before the process
// reads os.Getenv.
func Load() {
	godotenv.Load()
}

// RequireEnv returns the value of name, or an error wrapping
// ErrConfigMissing if it is unset or empty.
func RequireEnv(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrConfigMissing, name)
	}
	return v, nil
}

// OptionalEnv returns the value of name, or def if unset.
func OptionalEnv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// ErrConfigMissing is returned by RequireEnv for an absent variable.
var ErrConfigMissing = fmt.Errorf("required environment variable not set")
