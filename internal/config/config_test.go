package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoad_DefaultsWithoutFiles(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("FOLIO_ADDR", "")
	dir := t.TempDir()

	cfg, err := Load(LoadOptions{ConfigDir: dir, EnvFile: filepath.Join(dir, "missing.env")})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestLoad_YAMLThenDotenvThenEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), `
addr: ":9000"
export_dir: out
ranker:
  top_n: 4
  min_stars: 2
log:
  level: debug
`)
	envFile := filepath.Join(dir, "test.env")
	writeFile(t, envFile, "GITHUB_TOKEN=from-dotenv\nFOLIO_ADDR=:9100\nFOLIO_TOP_N=3\n")
	// Process environment beats the dotenv file.
	t.Setenv("FOLIO_ADDR", ":9200")

	cfg, err := Load(LoadOptions{ConfigDir: dir, EnvFile: envFile})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9200" {
		t.Fatalf("expected env addr, got %q", cfg.Addr)
	}
	if cfg.GitHubToken != "from-dotenv" {
		t.Fatalf("expected dotenv token, got %q", cfg.GitHubToken)
	}
	if cfg.Ranker.TopN != 3 || cfg.Ranker.MinStars != 2 {
		t.Fatalf("unexpected ranker config: %+v", cfg.Ranker)
	}
	if cfg.ExportDir != "out" || cfg.Log.Level != "debug" || cfg.Log.Format != "console" {
		t.Fatalf("file values not merged over defaults: %+v", cfg)
	}
	if cfg.Source != filepath.Join(dir, "config.yaml") {
		t.Fatalf("unexpected source %q", cfg.Source)
	}
}

func TestLoad_TOML(t *testing.T) {
	t.Setenv("FOLIO_ADDR", "")
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.toml"), `
addr = "0.0.0.0:8080"
cors_origins = ["http://localhost:3000"]

[pdf]
headless = false
timeout = "2m"
`)
	cfg, err := Load(LoadOptions{ConfigDir: dir, EnvFile: filepath.Join(dir, "none.env")})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "0.0.0.0:8080" || cfg.PDF.Headless {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if d, _ := cfg.PDFTimeout(); d.Minutes() != 2 {
		t.Fatalf("expected 2m timeout, got %v", d)
	}
	if diff := cmp.Diff([]string{"http://localhost:3000"}, cfg.CORSOrigins); diff != "" {
		t.Fatalf("cors mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad yaml", file: "addr: [\n"},
		{name: "zero top n", file: "ranker:\n  top_n: 0\n"},
		{name: "bad timeout", file: "pdf:\n  timeout: soon\n"},
		{name: "bad log format", file: "log:\n  format: xml\n"},
		{name: "bad env int", env: map[string]string{"FOLIO_TOP_N": "many"}},
		{name: "bad env bool", env: map[string]string{"FOLIO_PDF_HEADLESS": "perhaps"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.file != "" {
				writeFile(t, filepath.Join(dir, "config.yaml"), tt.file)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(LoadOptions{ConfigDir: dir, EnvFile: filepath.Join(dir, "none.env")}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestSave_DropsToken(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.GitHubToken = "secret"
	cfg.Addr = ":7000"
	if err := cfg.Save(filepath.Join(dir, "config.yaml")); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(b); got == "" || strings.Contains(got, "secret") {
		t.Fatalf("token leaked into config file:\n%s", got)
	}
	t.Setenv("FOLIO_ADDR", "")
	t.Setenv("GITHUB_TOKEN", "")
	back, err := Load(LoadOptions{ConfigDir: dir, EnvFile: filepath.Join(dir, "none.env")})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if back.Addr != ":7000" {
		t.Fatalf("expected saved addr, got %q", back.Addr)
	}
}

func TestDir_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigDir, "/tmp/folio-test-config")
	got, err := Dir()
	if err != nil || got != "/tmp/folio-test-config" {
		t.Fatalf("expected override, got %q, %v", got, err)
	}
}
