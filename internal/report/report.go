// Package report summarizes a finished extraction run: one line per source
// in the log, plus optional Markdown, PDF and JSON manifest artifacts.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/regextract/internal/rawsave"
	"github.com/hyperifyio/regextract/internal/source"
)

// Summary is everything the reporter knows about a run.
type Summary struct {
	Version  string
	Started  time.Time
	Duration time.Duration
	Outcomes []source.Outcome
	Saved    []rawsave.Saved
}

// New builds a summary whose duration runs from started until now.
func New(started time.Time, outcomes []source.Outcome, saved []rawsave.Saved) Summary {
	return Summary{Started: started, Duration: time.Since(started), Outcomes: outcomes, Saved: saved}
}

// Line renders the one-line summary of an outcome, e.g.
// "files ........ PARTIAL 1234 rows (cosing=900 sephora=334 skincare=failed)".
func Line(o source.Outcome) string {
	var b strings.Builder
	b.WriteString(o.Source)
	b.WriteString(" ")
	if pad := 14 - len(o.Source); pad > 0 {
		b.WriteString(strings.Repeat(".", pad))
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "%s %d rows", o.State, o.Rows())
	if len(o.Results) > 0 {
		parts := make([]string, 0, len(o.Results))
		for _, r := range o.Results {
			if r.Status == source.StatusFailed {
				parts = append(parts, r.Tag+"=failed")
				continue
			}
			parts = append(parts, fmt.Sprintf("%s=%d", r.Tag, r.Rows))
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, " "))
		b.WriteString(")")
	}
	return b.String()
}

// Log emits exactly one line per outcome and a closing duration line.
func Log(s Summary) {
	log.Info().Msg("extraction report")
	for _, o := range s.Outcomes {
		ev := log.Info()
		if o.State == source.StateFailed {
			ev = log.Error()
		} else if o.State == source.StatePartial {
			ev = log.Warn()
		}
		ev.Str("source", o.Source).
			Str("state", string(o.State)).
			Int("rows", o.Rows()).
			Msg(Line(o))
	}
	log.Info().
		Float64("duration_seconds", s.Duration.Seconds()).
		Int("files_saved", len(s.Saved)).
		Msg(fmt.Sprintf("total duration %.2fs", s.Duration.Seconds()))
}

// Artifacts names the optional summary files. Empty paths are skipped.
type Artifacts struct {
	MarkdownPath string
	PDFPath      string
	// Manifest writes a JSON sidecar next to MarkdownPath.
	Manifest bool
}

// Write renders every configured artifact. A failure on one artifact is
// logged and the others are still attempted; the errors are joined.
func (a Artifacts) Write(s Summary) error {
	var errs []error
	md := Markdown(s)
	if a.MarkdownPath != "" {
		if err := writeFile(a.MarkdownPath, []byte(md)); err != nil {
			errs = append(errs, fmt.Errorf("write summary: %w", err))
		} else {
			log.Info().Str("out", a.MarkdownPath).Msg("wrote summary")
		}
		if a.Manifest {
			path := ManifestPath(a.MarkdownPath)
			data, err := ManifestJSON(s)
			if err == nil {
				err = writeFile(path, data)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("write manifest: %w", err))
			} else {
				log.Info().Str("out", path).Msg("wrote manifest")
			}
		}
	}
	if a.PDFPath != "" {
		if err := os.MkdirAll(filepath.Dir(a.PDFPath), 0o755); err != nil {
			errs = append(errs, fmt.Errorf("write pdf: %w", err))
		} else if err := WritePDF(md, a.PDFPath); err != nil {
			errs = append(errs, fmt.Errorf("write pdf: %w", err))
		} else {
			log.Info().Str("out", a.PDFPath).Msg("wrote summary pdf")
		}
	}
	for _, err := range errs {
		log.Error().Err(err).Msg("summary artifact failed")
	}
	return errors.Join(errs...)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
