package files

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/regextract/internal/source"
)

// readDelimited loads a comma-separated catalog. The header fixes the column
// count; rows with the wrong width, a quoting error or an empty required
// column are skipped individually.
func readDelimited(path, tag string, required []string) source.Result {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return source.Failed(tag, fmt.Errorf("%w: %s", source.ErrMissingResource, path))
		}
		return source.Failed(tag, fmt.Errorf("read %s: %w", path, err))
	}

	reader := csv.NewReader(decodeText(data))
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err == io.EOF {
		return source.Failed(tag, fmt.Errorf("%w: %s is empty", source.ErrMalformedResponse, path))
	}
	if err != nil {
		return source.Failed(tag, fmt.Errorf("%w: header of %s: %v", source.ErrMalformedResponse, path, err))
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[name] = i
	}
	requiredIdx := make([]int, 0, len(required))
	for _, name := range required {
		idx, ok := colIndex[name]
		if !ok {
			return source.Failed(tag, fmt.Errorf("%w: %s lacks required column %q", source.ErrMalformedResponse, path, name))
		}
		requiredIdx = append(requiredIdx, idx)
	}

	table := source.NewTable(header...)
	skipped := 0
	var lastErr error
	line := 1
	for {
		line++
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			lastErr = fmt.Errorf("%w: %s line %d: %v", source.ErrMalformedResponse, path, line, err)
			log.Debug().Err(err).Str("file", path).Int("line", line).Msg("skipping malformed row")
			continue
		}
		if missingRequired(rec, requiredIdx) {
			skipped++
			lastErr = fmt.Errorf("%w: %s line %d: empty required column", source.ErrMalformedResponse, path, line)
			log.Debug().Str("file", path).Int("line", line).Msg("skipping row without required values")
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		table.Append(rec)
	}

	if skipped == 0 {
		return source.Succeeded(tag, table)
	}
	log.Warn().Str("file", path).Int("skipped", skipped).Int("kept", table.Len()).Msg("malformed rows skipped")
	return source.Partial(tag, table, lastErr)
}

func missingRequired(rec []string, idx []int) bool {
	for _, i := range idx {
		if i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
			return true
		}
	}
	return false
}
