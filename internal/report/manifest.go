package report

import (
	"encoding/json"
	"time"

	"github.com/hyperifyio/regextract/internal/rawsave"
	"github.com/hyperifyio/regextract/internal/source"
)

// manifestMeta captures run details that help reproduce a snapshot set.
type manifestMeta struct {
	Version         string    `json:"version"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	SourceCount     int       `json:"source_count"`
	FailedSources   []string  `json:"failed_sources"`
}

type manifestSource struct {
	Source string         `json:"source"`
	State  string         `json:"state"`
	Rows   int            `json:"rows"`
	Tables map[string]int `json:"tables"`
}

// ManifestJSON encodes a machine-readable sidecar describing the run and
// every snapshot written.
func ManifestJSON(s Summary) ([]byte, error) {
	meta := manifestMeta{
		Version:         s.Version,
		StartedAt:       s.Started.UTC(),
		DurationSeconds: s.Duration.Seconds(),
		SourceCount:     len(s.Outcomes),
		FailedSources:   []string{},
	}
	sources := make([]manifestSource, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		if o.State == source.StateFailed {
			meta.FailedSources = append(meta.FailedSources, o.Source)
		}
		tables := make(map[string]int, len(o.Results))
		for _, r := range o.Results {
			tables[r.Tag] = r.Rows
		}
		sources = append(sources, manifestSource{Source: o.Source, State: string(o.State), Rows: o.Rows(), Tables: tables})
	}
	files := s.Saved
	if files == nil {
		files = []rawsave.Saved{}
	}
	payload := struct {
		Meta    manifestMeta     `json:"meta"`
		Sources []manifestSource `json:"sources"`
		Files   []rawsave.Saved  `json:"files"`
	}{Meta: meta, Sources: sources, Files: files}
	return json.MarshalIndent(payload, "", "  ")
}

// ManifestPath returns the sidecar JSON path next to the Markdown summary.
func ManifestPath(summaryPath string) string {
	return summaryPath + ".manifest.json"
}
