package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "typeraider"

// ConfigDir returns $XDG_CONFIG_HOME/typeraider, falling back to
// ~/.config/typeraider on every platform.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	return filepath.Join(HomeDir(), ".config", appName)
}

// DefaultDataDir is used when data_directory is not set.
//
//	Linux/Mac: $XDG_DATA_HOME/typeraider or ~/.local/share/typeraider
//	Windows:   %LOCALAPPDATA%\typeraider
func DefaultDataDir() string {
	if runtime.GOOS == "windows" {
		local := os.Getenv("LOCALAPPDATA")
		if local == "" {
			local = filepath.Join(HomeDir(), "AppData", "Local")
		}
		return filepath.Join(local, appName)
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	return filepath.Join(HomeDir(), ".local", "share", appName)
}

func SettingsFilePath() string {
	return filepath.Join(ConfigDir(), "settings.toml")
}

// DebugLogPath is where NewLogger writes.
func DebugLogPath(dataDir string) string {
	return filepath.Join(dataDir, "debug.log")
}

// HomeDir returns the user's home directory, or the filesystem root when
// none is known.
func HomeDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	if runtime.GOOS == "windows" {
		return `C:\`
	}
	return "/"
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(HomeDir(), path[2:])
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// EnsureDir creates path with user-only access.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0700)
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDataDirPermissions creates dataDir or tightens it to 0700. Sessions
// and the exchange log hold file contents.
func EnsureDataDirPermissions(dataDir string) error {
	info, err := os.Stat(dataDir)
	if os.IsNotExist(err) {
		return EnsureDir(dataDir)
	}
	if err != nil {
		return err
	}
	if info.Mode().Perm() != 0700 {
		return os.Chmod(dataDir, 0700)
	}
	return nil
}
