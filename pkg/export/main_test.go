package export

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// Keep wizard answers written by tests out of the real config dir.
	dir, err := os.MkdirTemp("", "tt-export-test")
	if err != nil {
		panic(err)
	}
	os.Setenv("XDG_CONFIG_HOME", dir)
	os.Setenv("TT_METRICS", "0")

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}
