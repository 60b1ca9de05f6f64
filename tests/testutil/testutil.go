package testutil

import (
	"fmt"
	"net/url"
	"os"
	"testing"
)

// RequireTestEnvironment fails the test unless GO_ENV is "test"
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("refusing to run against GO_ENV=%q; set GO_ENV=test", env)
	}
}

// MustSetTestEnvironment switches GO_ENV to "test" for the duration of t
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()
	t.Setenv("GO_ENV", "test")
}

// PrintEnvironmentInfo prints the settings a test run would pick up, with credentials redacted
func PrintEnvironmentInfo() {
	fmt.Println("Test environment:")
	for _, key := range []string{"GO_ENV", "DATABASE_DRIVER", "DATABASE_URL", "MONGO_URI", "RABBITMQ_URL", "STRICT_ORDER_TRANSITIONS"} {
		fmt.Printf("  %s: %s\n", key, redact(os.Getenv(key)))
	}
}

// redact hides the password of URL-shaped values
func redact(value string) string {
	if value == "" {
		return "(not set)"
	}
	u, err := url.Parse(value)
	if err != nil || u.User == nil {
		return value
	}
	return u.Redacted()
}
