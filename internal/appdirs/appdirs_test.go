package appdirs

import (
	"os"
	"runtime"
	"strings"
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

func TestConfigFilePathEndsWithConfigToml(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	path, err := ConfigFilePath()
	if err != nil {
		t.Fatalf("ConfigFilePath failed: %v", err)
	}
	if !strings.HasSuffix(path, "config.toml") {
		t.Fatalf("unexpected config path: %s", path)
	}
	if !strings.Contains(path, AppName) {
		t.Fatalf("config path should contain app name: %s", path)
	}
}

func TestEnsureModelsDirCreatesCacheLocation(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("cache layout differs on windows")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := EnsureModelsDir()
	if err != nil {
		t.Fatalf("EnsureModelsDir failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("models dir missing: %v", err)
	}
	if !strings.HasSuffix(dir, "models") {
		t.Fatalf("unexpected models dir: %s", dir)
	}
}
