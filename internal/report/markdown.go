package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hyperifyio/regextract/internal/source"
)

// Markdown renders the summary as a small report: a table of sources, the
// per-table breakdown and the list of snapshot files.
func Markdown(s Summary) string {
	var b strings.Builder
	b.WriteString("# Extraction report\n\n")
	b.WriteString("- Started: ")
	b.WriteString(s.Started.UTC().Format(time.RFC3339))
	b.WriteString("\n- Duration: ")
	b.WriteString(strconv.FormatFloat(s.Duration.Seconds(), 'f', 2, 64))
	b.WriteString(" s\n\n")

	b.WriteString("## Sources\n\n")
	b.WriteString("| Source | State | Rows |\n|---|---|---|\n")
	for _, o := range s.Outcomes {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", o.Source, o.State, o.Rows())
	}

	b.WriteString("\n## Tables\n\n")
	for _, o := range s.Outcomes {
		for _, r := range o.Results {
			fmt.Fprintf(&b, "- %s/%s: %s, %d rows", o.Source, r.Tag, r.Status, r.Rows)
			if r.Detail != "" {
				b.WriteString(" via ")
				b.WriteString(r.Detail)
			}
			if r.Err != nil {
				fmt.Fprintf(&b, " (%s: %s)", source.Classify(r.Err), oneLine(r.Err.Error()))
			}
			b.WriteString("\n")
		}
	}

	if len(s.Saved) > 0 {
		b.WriteString("\n## Snapshots\n\n")
		for i, f := range s.Saved {
			fmt.Fprintf(&b, "%d. %s: %d rows; sha256=%s\n", i+1, f.Path, f.Rows, f.SHA256)
		}
	}
	return appendFooter(b.String(), s)
}

// appendFooter records the tool version and the number of files written.
func appendFooter(markdown string, s Summary) string {
	var b strings.Builder
	b.WriteString(markdown)
	b.WriteString("\n---\n")
	b.WriteString("Generated by regextract")
	if v := strings.TrimSpace(s.Version); v != "" {
		b.WriteString(" ")
		b.WriteString(v)
	}
	b.WriteString("; sources=")
	b.WriteString(strconv.Itoa(len(s.Outcomes)))
	b.WriteString("; snapshots=")
	b.WriteString(strconv.Itoa(len(s.Saved)))
	b.WriteString("\n")
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
