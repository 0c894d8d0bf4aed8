// Package offapi pages through the Open Beauty Facts / Open Food Facts
// product search endpoint.
package offapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/regextract/internal/fetch"
	"github.com/hyperifyio/regextract/internal/source"
)

const (
	DefaultBaseURL     = "https://world.openfoodfacts.org/cgi/search.pl"
	DefaultSearchTerms = "cosmetics"
	DefaultPageSize    = 25
	DefaultMaxPages    = 3

	// Tag names the table this extractor produces.
	Tag = "api_open_beauty_facts"
	// RecordSource is stamped on every record's source column.
	RecordSource = "open_beauty_facts_api"
)

// Getter is the fetch surface the extractor needs; *fetch.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Extractor requests up to MaxPages pages sequentially, one attempt each.
// A failed page is logged and skipped; it never aborts the remaining pages.
type Extractor struct {
	BaseURL     string
	SearchTerms string
	PageSize    int
	MaxPages    int
	Client      Getter
}

func (e *Extractor) Name() string { return "api" }

func (e *Extractor) Tags() []string { return []string{Tag} }

func (e *Extractor) withDefaults() Extractor {
	out := *e
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(out.SearchTerms) == "" {
		out.SearchTerms = DefaultSearchTerms
	}
	if out.PageSize <= 0 {
		out.PageSize = DefaultPageSize
	}
	if out.MaxPages <= 0 {
		out.MaxPages = DefaultMaxPages
	}
	if out.Client == nil {
		out.Client = &fetch.Client{Accept: fetch.JSON}
	}
	return out
}

// Extract returns a single result aggregating every page that parsed.
func (e *Extractor) Extract(ctx context.Context) []source.Result {
	cfg := e.withDefaults()
	table := source.NewTable(source.ProductColumns...)
	okPages, failedPages := 0, 0
	var lastErr error

	for page := 1; page <= cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		pageURL, err := cfg.pageURL(page)
		if err != nil {
			return []source.Result{source.Failed(Tag, fmt.Errorf("%w: base url: %v", source.ErrUnexpected, err))}
		}
		log.Info().Int("page", page).Int("max_pages", cfg.MaxPages).Msg("requesting product page")

		records, err := fetchPage(ctx, cfg.Client, pageURL)
		if err != nil {
			failedPages++
			lastErr = fmt.Errorf("page %d: %w", page, err)
			kind := source.Classify(err)
			if kind == source.KindTransient {
				log.Warn().Err(err).Int("page", page).Msg("page request failed; continuing with next page")
			} else {
				log.Error().Err(err).Int("page", page).Str("kind", string(kind)).Msg("page skipped")
			}
			continue
		}
		okPages++
		if len(records) == 0 {
			log.Info().Int("page", page).Msg("no products on page; stopping pagination")
			break
		}
		if len(records) > cfg.PageSize {
			records = records[:cfg.PageSize]
		}
		for _, r := range records {
			table.Append(r.Row())
		}
		log.Info().Int("page", page).Int("products", len(records)).Msg("page parsed")
	}

	log.Info().Int("products", table.Len()).Int("pages_ok", okPages).Int("pages_failed", failedPages).Msg("product search finished")
	switch {
	case okPages == 0:
		return []source.Result{source.Failed(Tag, lastErr)}
	case failedPages > 0:
		return []source.Result{source.Partial(Tag, table, lastErr)}
	default:
		return []source.Result{source.Succeeded(Tag, table)}
	}
}

func (e Extractor) pageURL(page int) (string, error) {
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("search_terms", e.SearchTerms)
	q.Set("search_simple", "1")
	q.Set("action", "process")
	q.Set("json", "1")
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(e.PageSize))
	// Older deployments read the page size from "count".
	q.Set("count", strconv.Itoa(e.PageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func fetchPage(ctx context.Context, c Getter, pageURL string) ([]source.ProductRecord, error) {
	body, _, err := c.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	var sr searchResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", source.ErrMalformedResponse, err)
	}
	if sr.Products == nil {
		return nil, fmt.Errorf("%w: response has no products field", source.ErrMalformedResponse)
	}
	out := make([]source.ProductRecord, 0, len(*sr.Products))
	for _, p := range *sr.Products {
		out = append(out, source.ProductRecord{
			Barcode:     strings.TrimSpace(string(p.Code)),
			Name:        strings.TrimSpace(string(p.ProductName)),
			Brand:       strings.TrimSpace(string(p.Brands)),
			Categories:  strings.TrimSpace(string(p.Categories)),
			Countries:   strings.TrimSpace(string(p.Countries)),
			Ingredients: strings.TrimSpace(string(p.IngredientsText)),
			Source:      RecordSource,
		})
	}
	return out, nil
}

// searchResponse keeps Products as a pointer so that a body without the key
// (an error object, {}) is told apart from an empty page.
type searchResponse struct {
	Products *[]product `json:"products"`
}

type product struct {
	Code            flexString `json:"code"`
	ProductName     flexString `json:"product_name"`
	Brands          flexString `json:"brands"`
	Categories      flexString `json:"categories"`
	Countries       flexString `json:"countries"`
	IngredientsText flexString `json:"ingredients_text"`
}

// flexString accepts a JSON string, number, boolean or null. The search API
// is not consistent about quoting barcodes and counters.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if b[0] == '{' || b[0] == '[' {
		return fmt.Errorf("expected scalar, got %s", b[:1])
	}
	*f = flexString(b)
	return nil
}
