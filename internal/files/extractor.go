// Package files reads the local regulatory annex workbook and the two product
// catalogs into tables.
package files

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/regextract/internal/source"
)

// Table tags produced by the extractor.
const (
	TagCosing   = "cosing"
	TagSephora  = "sephora"
	TagSkincare = "skincare"
)

// Columns a catalog row must carry to be kept.
var (
	SephoraRequired  = []string{"product_id", "product_name"}
	SkincareRequired = []string{"Brand", "Name"}
)

// Extractor loads the three configured local files. Each file is isolated:
// a missing or unreadable file fails only its own result.
type Extractor struct {
	CosingPath   string
	SephoraPath  string
	SkincarePath string
}

func (e *Extractor) Name() string { return "files" }

// Tags lists the tables in the order Extract reports them.
func (e *Extractor) Tags() []string { return []string{TagCosing, TagSephora, TagSkincare} }

// Extract returns one result per file in cosing, sephora, skincare order.
func (e *Extractor) Extract(ctx context.Context) []source.Result {
	type job struct {
		tag  string
		path string
		read func(path, tag string) source.Result
	}
	jobs := []job{
		{TagCosing, e.CosingPath, readAnnex},
		{TagSephora, e.SephoraPath, func(p, t string) source.Result { return readDelimited(p, t, SephoraRequired) }},
		{TagSkincare, e.SkincarePath, func(p, t string) source.Result { return readDelimited(p, t, SkincareRequired) }},
	}
	results := make([]source.Result, 0, len(jobs))
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			results = append(results, source.Failed(j.tag, err))
			continue
		}
		log.Info().Str("table", j.tag).Str("path", j.path).Msg("reading local file")
		r := j.read(j.path, j.tag)
		if r.Status == source.StatusFailed {
			log.Error().Err(r.Err).Str("table", j.tag).Str("kind", string(source.Classify(r.Err))).Msg("local file not loaded")
		} else {
			log.Info().Str("table", j.tag).Int("rows", r.Rows).Int("columns", len(r.Table.Columns)).Str("status", string(r.Status)).Msg("local file loaded")
		}
		results = append(results, r)
	}
	return results
}
