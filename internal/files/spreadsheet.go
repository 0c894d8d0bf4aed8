package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/hyperifyio/regextract/internal/source"
)

// headerScanRows bounds how far down the sheet the annex header is searched.
// CosIng exports carry a few title rows above the header.
const headerScanRows = 20

var annexRe = regexp.MustCompile(`(?i)annex[\s_-]*([IVX]+)(?:[^a-z]|$)`)

// annexLayout locates the known annex columns by header text. Matching is
// case-insensitive on a substring so minor export variations still line up.
type annexLayout struct {
	reference, name, inci, cas, ec int
}

func locateLayout(header []string) (annexLayout, bool) {
	l := annexLayout{reference: -1, name: -1, inci: -1, cas: -1, ec: -1}
	for i, cell := range header {
		h := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case strings.Contains(h, "reference number") && l.reference < 0:
			l.reference = i
		case strings.Contains(h, "chemical name") && l.name < 0:
			l.name = i
		case (strings.Contains(h, "glossary") || strings.Contains(h, "inci")) && l.inci < 0:
			l.inci = i
		case strings.Contains(h, "cas number") && l.cas < 0:
			l.cas = i
		case strings.Contains(h, "ec number") && l.ec < 0:
			l.ec = i
		}
	}
	return l, l.reference >= 0
}

// readAnnex loads the regulatory annex workbook into RegulatedIngredient rows.
func readAnnex(path, tag string) source.Result {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return source.Failed(tag, fmt.Errorf("%w: %s", source.ErrMissingResource, path))
		}
		return source.Failed(tag, fmt.Errorf("stat %s: %w", path, err))
	}
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		return source.Failed(tag, fmt.Errorf("%w: %s is a legacy .xls workbook; export it as .xlsx", source.ErrMalformedResponse, path))
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return source.Failed(tag, fmt.Errorf("%w: open %s: %v", source.ErrMalformedResponse, path, err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return source.Failed(tag, fmt.Errorf("%w: %s has no sheets", source.ErrMalformedResponse, path))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return source.Failed(tag, fmt.Errorf("%w: read %s: %v", source.ErrMalformedResponse, path, err))
	}

	headerAt := -1
	var layout annexLayout
	category := annexCategory(sheets[0], filepath.Base(path))
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		if l, ok := locateLayout(rows[i]); ok {
			headerAt, layout = i, l
			break
		}
		if m := annexRe.FindStringSubmatch(strings.Join(rows[i], " ")); m != nil {
			category = "Annex " + strings.ToUpper(m[1])
		}
	}
	if headerAt < 0 {
		return source.Failed(tag, fmt.Errorf("%w: %s: annex header not found", source.ErrMalformedResponse, path))
	}

	table := source.NewTable(source.IngredientColumns...)
	skipped := 0
	var lastErr error
	for i := headerAt + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		ing := source.RegulatedIngredient{
			Reference:   cell(row, layout.reference),
			Name:        source.NormalizeName(cell(row, layout.name)),
			INCIName:    source.NormalizeName(cell(row, layout.inci)),
			CAS:         cell(row, layout.cas),
			EC:          cell(row, layout.ec),
			Restriction: category,
		}
		if ing.Reference == "" && ing.Name == "" {
			skipped++
			lastErr = fmt.Errorf("%w: %s row %d: no reference or name", source.ErrMalformedResponse, path, i+1)
			continue
		}
		table.Append(ing.Row())
	}

	if skipped == 0 {
		return source.Succeeded(tag, table)
	}
	log.Warn().Str("file", path).Int("skipped", skipped).Int("kept", table.Len()).Msg("malformed annex rows skipped")
	return source.Partial(tag, table, lastErr)
}

// annexCategory guesses the restriction category from the sheet or file
// name, e.g. "COSING_Annex_III_v2.xlsx" -> "Annex III".
func annexCategory(names ...string) string {
	for _, n := range names {
		if m := annexRe.FindStringSubmatch(n); m != nil {
			return "Annex " + strings.ToUpper(m[1])
		}
	}
	return ""
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
