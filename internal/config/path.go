package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns the directory holding logs and metadata when none
// is configured. FLIGHTREVIEW_DATA_DIR wins, then XDG_DATA_HOME, then the
// platform convention; without a home directory it is "./data".
func DefaultDataDir() string {
	if v := env("DATA_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "flightreview")
	}
	candidates := []struct{ probe, dir string }{
		{"/var/lib", "/var/lib/flightreview"},
		{filepath.Join(home, "Library"), filepath.Join(home, "Library", "Application Support", "flightreview")},
		{filepath.Join(home, "AppData"), filepath.Join(home, "AppData", "Local", "flightreview")},
	}
	for _, c := range candidates {
		if isDir(c.probe) {
			return c.dir
		}
	}
	return filepath.Join(home, ".flightreview")
}

// LogPath returns the candidate file names for a log id inside dir, in the
// order they are tried.
func LogPath(dir, logID string) []string {
	return []string{
		filepath.Join(dir, logID+".ulg"),
		filepath.Join(dir, logID+".ulg.zst"),
		filepath.Join(dir, logID+".ulg.lz4"),
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
