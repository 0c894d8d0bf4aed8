package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/regextract/internal/source"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// TestRun_EndToEnd runs the whole pipeline against local servers with the
// database disabled and the annex workbook missing.
func TestRun_EndToEnd(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") != "1" {
			_, _ = w.Write([]byte(`{"products":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"products":[{"code":"123","product_name":"Night cream","brands":"Acme"}]}`))
	}))
	defer api.Close()
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><table><tr><th>Reference</th><th>Name</th></tr><tr><td>1</td><td>Lead</td></tr></table></body></html>`))
	}))
	defer page.Close()

	dir := t.TempDir()
	sephora := filepath.Join(dir, "product_info.csv")
	skincare := filepath.Join(dir, "cosmetics.csv")
	writeFile(t, sephora, "product_id,product_name,brand_name\nP1,Serum,Acme\nP2,Cream,Acme\n")
	writeFile(t, skincare, "Label,Brand,Name\nMoisturizer,Acme,Daily\n")

	cfg := DefaultConfig()
	cfg.CosingPath = filepath.Join(dir, "missing.xlsx")
	cfg.SephoraPath = sephora
	cfg.SkincarePath = skincare
	cfg.APIURL = api.URL
	cfg.ScrapeURL = page.URL
	cfg.HTTPTimeout = 2 * time.Second
	cfg.SkipDB = true
	cfg.RawDir = filepath.Join(dir, "raw")
	cfg.SummaryPath = filepath.Join(dir, "reports", "summary.md")
	cfg.Manifest = true

	summary, err := New(cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Outcomes) != 4 {
		t.Fatalf("expected 4 outcomes, got %d", len(summary.Outcomes))
	}
	want := map[string]source.State{
		"files":    source.StatePartial,
		"api":      source.StateSucceeded,
		"scrape":   source.StateSucceeded,
		"database": source.StateFailed,
	}
	for _, o := range summary.Outcomes {
		if o.State != want[o.Source] {
			t.Fatalf("%s: state %s, want %s", o.Source, o.State, want[o.Source])
		}
	}
	if got := summary.Outcomes[0].Rows(); got != 3 {
		t.Fatalf("files rows=%d, want 3", got)
	}

	entries, err := os.ReadDir(cfg.RawDir)
	if err != nil {
		t.Fatalf("read raw dir: %v", err)
	}
	if len(entries) != 4 || len(summary.Saved) != 4 {
		t.Fatalf("expected 4 snapshots (sephora, skincare, api, scrape), got %d files / %d saved", len(entries), len(summary.Saved))
	}
	stamp := summary.Started.Format("20060102_150405")
	for _, e := range entries {
		if !strings.Contains(e.Name(), stamp) || !strings.HasSuffix(e.Name(), ".csv") {
			t.Fatalf("unexpected snapshot name %s", e.Name())
		}
	}

	md, err := os.ReadFile(cfg.SummaryPath)
	if err != nil {
		t.Fatalf("summary not written: %v", err)
	}
	if !strings.Contains(string(md), "| database | FAILED | 0 |") {
		t.Fatalf("summary missing database row:\n%s", md)
	}
	if _, err := os.Stat(cfg.SummaryPath + ".manifest.json"); err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
}

func TestRun_AllSourcesFailed(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.CosingPath = filepath.Join(dir, "a.xlsx")
	cfg.SephoraPath = filepath.Join(dir, "b.csv")
	cfg.SkincarePath = filepath.Join(dir, "c.csv")
	cfg.APIURL = down.URL
	cfg.ScrapeURL = down.URL
	cfg.HTTPTimeout = 2 * time.Second
	cfg.SkipDB = true
	cfg.RawDir = filepath.Join(dir, "raw")

	summary, err := New(cfg).Run(context.Background())
	if !errors.Is(err, ErrAllSourcesFailed) {
		t.Fatalf("expected ErrAllSourcesFailed, got %v", err)
	}
	if len(summary.Outcomes) != 4 {
		t.Fatalf("summary must list every source, got %d", len(summary.Outcomes))
	}
	for _, o := range summary.Outcomes {
		for _, r := range o.Results {
			if r.Status != source.StatusFailed || r.Rows != 0 || !r.Table.Empty() {
				t.Fatalf("%s/%s: expected failed empty result, got %+v", o.Source, r.Tag, r)
			}
		}
	}
	if entries, _ := os.ReadDir(cfg.RawDir); len(entries) != 0 {
		t.Fatalf("failed results must not produce files, found %d", len(entries))
	}
}

func TestVersionString(t *testing.T) {
	prevV, prevC := BuildVersion, BuildCommit
	t.Cleanup(func() { BuildVersion, BuildCommit = prevV, prevC })

	BuildVersion, BuildCommit = "1.4.0", "unknown"
	if got := VersionString(); got != "1.4.0" {
		t.Fatalf("got %q", got)
	}
	BuildCommit = "0123456789abcdef"
	if got := VersionString(); got != fmt.Sprintf("1.4.0+%s", "0123456789ab") {
		t.Fatalf("got %q", got)
	}
}
