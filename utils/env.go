package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// maxEnvDepth bounds how many parent directories LoadDotEnv climbs.
const maxEnvDepth = 6

// ErrMissingEnv is returned by RequireEnv when the variable is unset or blank.
var ErrMissingEnv = errors.New("missing environment variable")

// LoadDotEnv loads variables from a .env file if present.
// Without paths it tries the working directory, then its parents up to the
// project root (the first directory holding go.mod). Existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) > 0 {
		return godotenv.Load(paths...)
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}
	root, _ := FindProjectRoot(wd)

	dir := wd
	for range maxEnvDepth + 1 {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			return godotenv.Load(envPath)
		}
		if dir == root {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return os.ErrNotExist
}

// FindProjectRoot walks up from start to the first directory containing go.mod.
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above %s: %w", start, os.ErrNotExist)
		}
		dir = parent
	}
}

// GetEnv returns the environment variable value if set, or the default.
func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// RequireEnv returns the trimmed value of key or ErrMissingEnv.
func RequireEnv(key string) (string, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, key)
	}
	return v, nil
}
