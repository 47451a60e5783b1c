package pulse

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CookieSize is the length of the native protocol auth cookie.
const CookieSize = 256

// CookiePaths returns the candidate cookie locations in lookup order.
func CookiePaths() []string {
	var paths []string
	if p := os.Getenv("PULSE_COOKIE"); p != "" {
		paths = append(paths, p)
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	home, err := os.UserHomeDir()
	if configHome == "" && err == nil {
		configHome = filepath.Join(home, ".config")
	}
	if configHome != "" {
		paths = append(paths, filepath.Join(configHome, "pulse", "cookie"))
	}
	if err == nil {
		paths = append(paths, filepath.Join(home, ".pulse-cookie"))
	}
	return paths
}

// LoadCookie reads the auth cookie. An explicit path must exist; otherwise
// the default locations are tried and a zeroed cookie is returned when none
// exists, which servers without cookie auth (pipewire-pulse) accept.
func LoadCookie(path string) ([]byte, error) {
	if path != "" {
		return readCookie(expandPath(path))
	}

	for _, p := range CookiePaths() {
		cookie, err := readCookie(p)
		if err == nil {
			return cookie, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return make([]byte, CookieSize), nil
}

func readCookie(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < CookieSize {
		return nil, fmt.Errorf("cookie %s too short: %d bytes, want %d", path, len(data), CookieSize)
	}
	return data[:CookieSize], nil
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
