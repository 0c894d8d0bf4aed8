package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/regextract/internal/database"
	"github.com/hyperifyio/regextract/internal/fetch"
	"github.com/hyperifyio/regextract/internal/files"
	"github.com/hyperifyio/regextract/internal/offapi"
	"github.com/hyperifyio/regextract/internal/pipeline"
	"github.com/hyperifyio/regextract/internal/rawsave"
	"github.com/hyperifyio/regextract/internal/report"
	"github.com/hyperifyio/regextract/internal/scrape"
	"github.com/hyperifyio/regextract/internal/source"
)

// ErrAllSourcesFailed is returned when every source ended FAILED. The run
// still completes and reports; this only drives the exit status.
var ErrAllSourcesFailed = errors.New("all sources failed")

type App struct {
	cfg        Config
	extractors []pipeline.Extractor
	now        func() time.Time
}

// New wires the four extractors from cfg in their fixed order: files, api,
// scrape, database.
func New(cfg Config) *App {
	httpClient := newHTTPClient(cfg.HTTPTimeout)
	client := func(accept []string) *fetch.Client {
		return &fetch.Client{
			HTTPClient:        httpClient,
			UserAgent:         cfg.UserAgent,
			PerRequestTimeout: cfg.HTTPTimeout,
			RedirectMaxHops:   5,
			Accept:            accept,
		}
	}

	db := &database.Extractor{Config: database.Config{
		User:     cfg.MySQLUser,
		Password: cfg.MySQLPassword,
		Host:     cfg.MySQLHost,
		Port:     cfg.MySQLPort,
		DBName:   cfg.MySQLDB,
	}}
	var dbExtractor pipeline.Extractor = db
	if cfg.SkipDB {
		dbExtractor = skipped{name: db.Name(), tags: db.Tags()}
	}

	return &App{
		cfg: cfg,
		now: time.Now,
		extractors: []pipeline.Extractor{
			&files.Extractor{CosingPath: cfg.CosingPath, SephoraPath: cfg.SephoraPath, SkincarePath: cfg.SkincarePath},
			&offapi.Extractor{
				BaseURL:     cfg.APIURL,
				SearchTerms: cfg.APISearchTerms,
				PageSize:    cfg.APIPageSize,
				MaxPages:    cfg.APIMaxPages,
				Client:      client(fetch.JSON),
			},
			&scrape.Extractor{URL: cfg.ScrapeURL, Client: client(fetch.HTML)},
			dbExtractor,
		},
	}
}

// Run extracts every source, saves snapshots and reports. It always returns
// a complete summary; the error is ErrAllSourcesFailed when nothing worked.
func (a *App) Run(ctx context.Context) (report.Summary, error) {
	started := a.now()
	log.Info().Str("version", VersionString()).Time("started", started).Msg("extraction started")

	outcomes := pipeline.Run(ctx, a.extractors)

	var results []source.Result
	for _, o := range outcomes {
		results = append(results, o.Results...)
	}
	saver := &rawsave.Saver{Dir: a.cfg.RawDir, RunStarted: started}
	saved := saver.SaveAll(results)

	summary := report.New(started, outcomes, saved)
	summary.Version = VersionString()
	report.Log(summary)

	artifacts := report.Artifacts{MarkdownPath: a.cfg.SummaryPath, PDFPath: a.cfg.SummaryPDFPath, Manifest: a.cfg.Manifest}
	// Artifact errors are logged by Write and never change the run outcome.
	_ = artifacts.Write(summary)

	if pipeline.AllFailed(outcomes) {
		return summary, ErrAllSourcesFailed
	}
	return summary, nil
}

// skipped stands in for a source disabled by configuration. It still reports
// one failed table per tag so the summary lists the source.
type skipped struct {
	name string
	tags []string
}

var errSkipped = fmt.Errorf("%w: source disabled by configuration", source.ErrMissingResource)

func (s skipped) Name() string   { return s.name }
func (s skipped) Tags() []string { return s.tags }
func (s skipped) Extract(context.Context) []source.Result {
	log.Warn().Str("source", s.name).Msg("source disabled; skipping")
	out := make([]source.Result, 0, len(s.tags))
	for _, t := range s.tags {
		out = append(out, source.Failed(t, errSkipped))
	}
	return out
}
