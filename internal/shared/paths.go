package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "spotify-to-musi"

var getPlatform = func() string { return runtime.GOOS }

// AppDataDir returns the per-OS directory where persistent application data
// is stored.
//
//	linux:   ~/.local/share/spotify-to-musi
//	macOS:   ~/Library/Application Support/spotify-to-musi
//	windows: %USERPROFILE%/AppData/Roaming/spotify-to-musi
func AppDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}

	switch getPlatform() {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", appDirName), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appDirName), nil
	default:
		return filepath.Join(home, ".local", "share", appDirName), nil
	}
}

// EnsureAppDataDir creates the application data directory if it does not
// exist and returns its path.
func EnsureAppDataDir() (string, error) {
	dir, err := AppDataDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create app data directory: %w", err)
	}

	return dir, nil
}

// TrackCachePath returns the path of the persistent resolved-track cache.
func TrackCachePath() (string, error) {
	return appDataPath("youtube-data-cache.json")
}

// CredentialsPath returns the path of the stored Spotify client credentials.
func CredentialsPath() (string, error) {
	return appDataPath("spotify-credentials.json")
}

// TokenPath returns the path of the cached Spotify OAuth token.
func TokenPath() (string, error) {
	return appDataPath("spotify-token.json")
}

// HeadersPath returns the path of the saved YouTube Music request headers.
func HeadersPath() (string, error) {
	return appDataPath("youtube-headers.json")
}

// DatabasePath returns the path of the transfer history database.
func DatabasePath() (string, error) {
	return appDataPath("history.db")
}

func appDataPath(filename string) (string, error) {
	dir, err := EnsureAppDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filename), nil
}
