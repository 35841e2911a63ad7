package ui

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// Keep debug output and metrics from leaking into test runs.
	os.Unsetenv("TT_DEBUG")
	os.Setenv("TT_METRICS", "0")
	os.Exit(m.Run())
}
