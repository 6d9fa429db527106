package appdirs

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestEnsureConfigDirUsesPrivatePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not portable on windows")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	dir, err := EnsureConfigDir()
	if err != nil {
		t.Fatalf("EnsureConfigDir failed: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat config dir failed: %v", err)
	}
	if perms := info.Mode().Perm(); perms&0o077 != 0 {
		t.Fatalf("expected private config dir permissions, got %o", perms)
	}
}

func TestEnsureStateDirUsesPrivatePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not portable on windows")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_STATE_HOME", "")

	dir, err := EnsureStateDir()
	if err != nil {
		t.Fatalf("EnsureStateDir failed: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat state dir failed: %v", err)
	}
	if perms := info.Mode().Perm(); perms&0o077 != 0 {
		t.Fatalf("expected private state dir permissions, got %o", perms)
	}
}

func TestBaseDirPrefersEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(BaseDirEnv, dir)

	got, err := BaseDir()
	if err != nil {
		t.Fatalf("BaseDir failed: %v", err)
	}
	if got != dir {
		t.Fatalf("expected %q, got %q", dir, got)
	}
}

func TestBaseDirFallsBackToExecutableDir(t *testing.T) {
	t.Setenv(BaseDirEnv, "")
	dir := t.TempDir()
	exe := filepath.Join(dir, "s3tools")
	if err := os.WriteFile(exe, []byte("bin"), 0o755); err != nil {
		t.Fatalf("write fake executable failed: %v", err)
	}

	previous := executablePath
	executablePath = func() (string, error) { return exe, nil }
	t.Cleanup(func() {
		executablePath = previous
	})

	got, err := BaseDir()
	if err != nil {
		t.Fatalf("BaseDir failed: %v", err)
	}
	want, _ := filepath.EvalSymlinks(dir)
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestEngineCacheDirIsScopedPerEngine(t *testing.T) {
	root := t.TempDir()
	a := EngineCacheDir(root, "sitemap")
	b := EngineCacheDir(root, "formato")
	if a == b {
		t.Fatalf("expected distinct cache dirs, got %q twice", a)
	}
	if filepath.Dir(a) != filepath.Join(root, AppName, "engines") {
		t.Fatalf("unexpected cache layout: %q", a)
	}
}

func TestEngineCacheDirDefaultsToUserCache(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME only applies on linux")
	}
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)

	got := EngineCacheDir("", "sitemap")
	want := filepath.Join(cache, AppName, "engines", "sitemap")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
