// Package scrape recovers the regulated-ingredient annex listing from the
// CosIng web page using a three-tier fallback: HTML tables, then annex
// document links, then keyword passages.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/regextract/internal/fetch"
	"github.com/hyperifyio/regextract/internal/source"
)

const (
	DefaultURL = "https://cosing.ec.europa.eu/cosing-annexes_en"

	// Tag names the table this extractor produces.
	Tag = "scraping_cosing_annexes"
)

// Getter is the fetch surface the extractor needs; *fetch.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Extractor fetches URL once and parses it.
type Extractor struct {
	URL    string
	Client Getter
}

func (e *Extractor) Name() string { return "scrape" }

func (e *Extractor) Tags() []string { return []string{Tag} }

// Extract returns a single result. Detail names the tier that produced it.
func (e *Extractor) Extract(ctx context.Context) []source.Result {
	pageURL := e.URL
	if pageURL == "" {
		pageURL = DefaultURL
	}
	client := e.Client
	if client == nil {
		client = &fetch.Client{Accept: fetch.HTML}
	}

	log.Info().Str("url", pageURL).Msg("fetching annex page")
	body, _, err := client.Get(ctx, pageURL)
	if err != nil {
		kind := source.Classify(err)
		log.WithLevel(kind.Level()).Err(err).Str("url", pageURL).Str("kind", string(kind)).Msg("annex page fetch failed")
		return []source.Result{source.Failed(Tag, err)}
	}
	r := Parse(body, pageURL)
	if r.Status == source.StatusFailed {
		log.Error().Err(r.Err).Str("url", pageURL).Msg("no tier recovered any annex data")
	} else {
		log.Info().Str("tier", r.Detail).Int("rows", r.Rows).Msg("annex page parsed")
	}
	return []source.Result{r}
}

// Parse runs the fallback chain over an already fetched page. pageURL is
// used to resolve relative links.
func Parse(body []byte, pageURL string) source.Result {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return source.Failed(Tag, fmt.Errorf("%w: parse html: %v", source.ErrMalformedResponse, err))
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	if t := tablesTier(doc); !t.Empty() {
		return source.Succeeded(Tag, t).WithDetail(TierTables)
	}
	log.Debug().Msg("no data tables on page; trying annex links")
	if t := annexLinksTier(doc, base); !t.Empty() {
		return source.Succeeded(Tag, t).WithDetail(TierAnnexLinks)
	}
	log.Debug().Msg("no annex links on page; scanning text for keywords")
	if t := keywordsTier(body); !t.Empty() {
		return source.Succeeded(Tag, t).WithDetail(TierKeywords)
	}
	return source.Failed(Tag, fmt.Errorf("%w: no tables, annex links or keyword passages", source.ErrMalformedResponse))
}
