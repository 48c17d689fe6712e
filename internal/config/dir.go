// Package config resolves autocommit's configuration directory and settings.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the per-user configuration directory.
const appName = "autocommit"

// Dir returns the autocommit configuration directory.
//
// Resolution:
//   - $AUTOCOMMIT_CONFIG_HOME if set (explicit override)
//   - $XDG_CONFIG_HOME/autocommit if set (respects XDG on any platform)
//   - %AppData%/autocommit on Windows
//   - ~/.config/autocommit on macOS and Linux
func Dir() string {
	if dir := os.Getenv("AUTOCOMMIT_CONFIG_HOME"); dir != "" {
		return dir
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}
