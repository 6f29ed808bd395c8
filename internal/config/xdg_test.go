package config

import (
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
)

// setConfigHome points xdg at dir for the duration of the test.
func setConfigHome(t *testing.T, dir string) {
	t.Helper()
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(dir, "none"))
	xdg.Reload()
}
