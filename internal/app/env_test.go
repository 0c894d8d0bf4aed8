package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// unsetEnv clears key for the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	_ = os.Unsetenv(key)
}

// This test verifies that LoadEnvFiles reads KEY=VALUE pairs and populates os.Environ.
func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
	unsetEnv(t, "MYSQL_HOST")
	unsetEnv(t, "MYSQL_PASSWORD")

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "\n# sample dotenv file\nMYSQL_HOST=db.internal\nMYSQL_PASSWORD=\"s3 cret\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	if err := LoadEnvFiles(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}

	if got := os.Getenv("MYSQL_HOST"); got != "db.internal" {
		t.Fatalf("MYSQL_HOST=%q, want db.internal", got)
	}
	if got := os.Getenv("MYSQL_PASSWORD"); got != "s3 cret" {
		t.Fatalf("MYSQL_PASSWORD=%q, want quoted value unwrapped", got)
	}
}

// Later files override earlier ones; the real environment wins over both.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	unsetEnv(t, "K")
	t.Setenv("REAL", "from-env")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	if err := os.WriteFile(a, []byte("K=first\nREAL=from-a\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}

	if err := LoadEnvFiles(a, b); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("K"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
	if got := os.Getenv("REAL"); got != "from-env" {
		t.Fatalf("dotenv replaced a real variable: %q", got)
	}
}

func TestApplyEnvOverrides_FromEnv(t *testing.T) {
	t.Setenv("FILE_SEPHORA", "/data/sephora.csv")
	t.Setenv("API_MAX_PAGES", "5")
	t.Setenv("API_PAGE_SIZE", "bogus")
	t.Setenv("MYSQL_PORT", "3307")
	t.Setenv("MYSQL_PASSWORD", "")
	t.Setenv("HTTP_TIMEOUT", "45")
	t.Setenv("SKIP_DB", "yes")
	t.Setenv("VERBOSE", "off")

	cfg := DefaultConfig()
	cfg.MySQLPassword = "from-file"
	cfg.Verbose = true
	ApplyEnvOverrides(&cfg)

	if cfg.SephoraPath != "/data/sephora.csv" {
		t.Fatalf("SephoraPath=%q", cfg.SephoraPath)
	}
	if cfg.APIMaxPages != 5 || cfg.APIPageSize != 25 {
		t.Fatalf("pagination parsed to %d/%d, want 5/25", cfg.APIMaxPages, cfg.APIPageSize)
	}
	if cfg.MySQLPort != 3307 || cfg.MySQLPassword != "" {
		t.Fatalf("mysql settings: port=%d password=%q", cfg.MySQLPort, cfg.MySQLPassword)
	}
	if cfg.HTTPTimeout != 45*time.Second {
		t.Fatalf("HTTPTimeout=%s, want 45s", cfg.HTTPTimeout)
	}
	if !cfg.SkipDB || cfg.Verbose {
		t.Fatalf("booleans: SkipDB=%t Verbose=%t", cfg.SkipDB, cfg.Verbose)
	}
}
