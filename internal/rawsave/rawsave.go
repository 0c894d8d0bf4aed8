// Package rawsave writes each extracted table to a timestamped CSV snapshot.
// Snapshots are created exclusively and are never overwritten.
package rawsave

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/regextract/internal/source"
)

// TimestampLayout is embedded in every snapshot file name.
const TimestampLayout = "20060102_150405"

// maxSuffix bounds the search for a free file name.
const maxSuffix = 1000

// Saved describes one written snapshot.
type Saved struct {
	Tag    string `json:"tag"`
	Path   string `json:"path"`
	Rows   int    `json:"rows"`
	SHA256 string `json:"sha256"`
}

// Saver writes snapshots under Dir, naming them with RunStarted.
type Saver struct {
	Dir        string
	RunStarted time.Time
}

// SaveAll writes every non-empty result. Empty and failed results are logged
// and skipped. A failed write is logged and does not stop the others.
func (s *Saver) SaveAll(results []source.Result) []Saved {
	var out []Saved
	for _, r := range results {
		if r.Status == source.StatusFailed || r.Table.Empty() {
			log.Warn().Str("table", r.Tag).Str("status", string(r.Status)).Msg("empty table; no snapshot written")
			continue
		}
		saved, err := s.Save(r)
		if err != nil {
			log.Error().Err(err).Str("table", r.Tag).Msg("snapshot write failed")
			continue
		}
		log.Info().Str("table", r.Tag).Str("path", saved.Path).Int("rows", saved.Rows).Msg("snapshot saved")
		out = append(out, saved)
	}
	return out
}

// Save writes one result to a new file and returns its description.
func (s *Saver) Save(r source.Result) (Saved, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Saved{}, fmt.Errorf("create snapshot dir: %w", err)
	}
	f, path, err := createExclusive(dir, r.Tag, s.runStarted())
	if err != nil {
		return Saved{}, err
	}

	h := sha256.New()
	werr := writeCSV(io.MultiWriter(f, h), r.Table)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(path)
		return Saved{}, fmt.Errorf("write %s: %w", path, werr)
	}
	return Saved{Tag: r.Tag, Path: path, Rows: r.Table.Len(), SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

func (s *Saver) runStarted() time.Time {
	if s.RunStarted.IsZero() {
		return time.Now()
	}
	return s.RunStarted
}

// FileName returns the snapshot name for tag at ts. A suffix n > 1 is
// appended when earlier names are taken.
func FileName(tag string, ts time.Time, n int) string {
	name := tag + "_" + ts.Format(TimestampLayout)
	if n > 1 {
		name += "_" + strconv.Itoa(n)
	}
	return name + ".csv"
}

func createExclusive(dir, tag string, ts time.Time) (*os.File, string, error) {
	for n := 1; n <= maxSuffix; n++ {
		path := filepath.Join(dir, FileName(tag, ts, n))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create snapshot: %w", err)
		}
	}
	return nil, "", fmt.Errorf("create snapshot: no free name for %s after %d attempts", tag, maxSuffix)
}

func writeCSV(w io.Writer, t source.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}
