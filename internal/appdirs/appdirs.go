package appdirs

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const AppName = "s3tools"

// BaseDirEnv overrides the directory engines are launched from and searched
// relative to. It defaults to the directory holding the running executable.
const BaseDirEnv = "S3TOOLS_BASE_DIR"

var executablePath = os.Executable

func configBaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return appData, nil
		}
		return filepath.Join(home, "AppData", "Roaming"), nil
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg, nil
		}
		return filepath.Join(home, ".config"), nil
	}
}

func stateBaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return localAppData, nil
		}
		return filepath.Join(home, "AppData", "Local"), nil
	default:
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			return xdg, nil
		}
		return filepath.Join(home, ".local", "state"), nil
	}
}

func ConfigDir() (string, error) {
	base, err := configBaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func EnsureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return dir, ensurePrivateDir(dir, "config")
}

func StateDir() (string, error) {
	base, err := stateBaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName, "state"), nil
}

func EnsureStateDir() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return dir, ensurePrivateDir(dir, "state")
}

func StateFilePath(name string) (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// BaseDir returns the application base directory: the value of
// S3TOOLS_BASE_DIR when set, else the directory of the running executable
// with symlinks resolved.
func BaseDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(BaseDirEnv)); override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("could not resolve %s: %w", BaseDirEnv, err)
		}
		return abs, nil
	}

	exe, err := executablePath()
	if err != nil {
		return "", fmt.Errorf("could not resolve executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// EngineCacheDir is where a packaged engine binary is extracted on first use.
// An empty root means the per-user cache dir.
func EngineCacheDir(root, engine string) string {
	base := strings.TrimSpace(root)
	if base == "" {
		base = userCacheBase()
	} else {
		base = filepath.Join(base, AppName)
	}
	return filepath.Join(base, "engines", engine)
}

// EnsureEngineCacheDir creates the engine cache dir readable by the current
// user only.
func EnsureEngineCacheDir(root, engine string) (string, error) {
	dir := EngineCacheDir(root, engine)
	return dir, ensurePrivateDir(dir, "engine cache")
}

// userCacheBase falls back to a uid-scoped folder in the temp dir when the OS
// has no per-user cache dir.
func userCacheBase() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d", AppName, os.Getuid()))
}

func ensurePrivateDir(dir, label string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("could not create %s dir: %w", label, err)
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		return fmt.Errorf("could not secure %s dir permissions: %w", label, err)
	}
	return nil
}
