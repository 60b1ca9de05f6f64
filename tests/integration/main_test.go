package integration

import (
	"os"
	"testing"

	"github.com/aaandrangom/biblioteca-api/tests/testutil"
)

func TestMain(m *testing.M) {
	if os.Getenv("GO_ENV") == "" {
		os.Setenv("GO_ENV", "test")
	}
	if os.Getenv("GO_ENV") != "test" {
		testutil.PrintEnvironmentInfo()
	}
	os.Exit(m.Run())
}
