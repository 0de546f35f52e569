// internal/config/loader_test.go
//
// Unit-tests for the layered loader.  Each test builds a throwaway root with
// conf/global.yaml and points SHORTLY_ROOT at it.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if body != "" {
		if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(body), 0o644); err != nil {
			t.Fatalf("write yaml: %v", err)
		}
	}
	t.Setenv("SHORTLY_ROOT", root)
	return root
}

func TestLoad_YAMLAndDefaults(t *testing.T) {
	root := writeYAML(t, `
api:
  base_url: "https://api.link-shortener.com"
notify:
  duration: "3s"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "https://api.link-shortener.com" {
		t.Fatalf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.API.QRPath != "/qr" {
		t.Fatalf("qr_path default = %q, want /qr", cfg.API.QRPath)
	}
	if cfg.Notify.Duration != 3*time.Second {
		t.Fatalf("notify.duration = %v, want 3s", cfg.Notify.Duration)
	}
	if cfg.HTTP.ListenAddr != ":8080" {
		t.Fatalf("listen_addr default = %q", cfg.HTTP.ListenAddr)
	}
	if cfg.Log.Dir != filepath.Join(root, "logs") {
		t.Fatalf("log dir = %q", cfg.Log.Dir)
	}
	if Get() != cfg {
		t.Fatalf("Get() did not return the cached config")
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	writeYAML(t, `
api:
  base_url: "https://api.link-shortener.com"
  qr_path: "/qr"
`)
	t.Setenv("SHORTLY_API__BASE_URL", "http://localhost:8000")
	t.Setenv("SHORTLY_API__QR_PATH", "/dynamic/qr")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Fatalf("env override ignored: %q", cfg.API.BaseURL)
	}
	if cfg.API.QRPath != "/dynamic/qr" {
		t.Fatalf("qr_path = %q", cfg.API.QRPath)
	}
}

func TestLoad_MissingBaseURLFails(t *testing.T) {
	writeYAML(t, "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error without api.base_url")
	}
}
