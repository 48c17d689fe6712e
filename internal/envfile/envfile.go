// Package envfile loads environment variables from .env files.
// Variables already present in the environment take precedence.
package envfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Load reads each existing file in order. Missing files are skipped, and a
// variable set by an earlier file or the environment is never overwritten.
func Load(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("opening env file %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("reading env file %s: %w", path, err)
		}
	}
	return nil
}

// Defaults returns the env files autocommit reads, highest priority first:
// <repo>/.env.local, <repo>/.env and <config dir>/env.
func Defaults(repoRoot, configDir string) []string {
	var paths []string
	if repoRoot != "" {
		paths = append(paths, filepath.Join(repoRoot, ".env.local"), filepath.Join(repoRoot, ".env"))
	}
	if configDir != "" {
		paths = append(paths, filepath.Join(configDir, "env"))
	}
	return paths
}
