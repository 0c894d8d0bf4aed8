package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/regextract/internal/app"
	"github.com/hyperifyio/regextract/internal/pipeline"
	"github.com/hyperifyio/regextract/internal/report"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	closer, err := app.SetupLogging(cfg.LogFile, cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	summary, err := run(ctx, cfg)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	// Exit code policy: nonzero only when no source produced anything.
	if code := pipeline.ExitCode(summary.Outcomes); code != 0 {
		_ = closer.Close()
		os.Exit(code)
	}
}

func run(ctx context.Context, cfg app.Config) (report.Summary, error) {
	return app.New(cfg).Run(ctx)
}

// loadConfig resolves configuration with precedence
// flags > environment > config file > dotenv > defaults.
// The arguments are parsed twice: once to find -config and -env, then again
// over the merged values so that only explicitly set flags override them.
func loadConfig(args []string) (app.Config, error) {
	var probe app.Config
	var configPath, envFile string
	pre := flag.NewFlagSet("regextract", flag.ContinueOnError)
	pre.SetOutput(io.Discard)
	bindFlags(pre, &probe, &configPath, &envFile)
	// Parse errors surface from the second pass, which prints usage.
	_ = pre.Parse(args)

	if err := app.LoadEnvFiles(envFile); err != nil {
		return app.Config{}, fmt.Errorf("load env file: %w", err)
	}
	cfg := app.DefaultConfig()
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return app.Config{}, err
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	fs := flag.NewFlagSet("regextract", flag.ContinueOnError)
	bindFlags(fs, &cfg, &configPath, &envFile)
	if err := fs.Parse(args); err != nil {
		return app.Config{}, err
	}
	if err := app.ValidateConfig(cfg); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}

// bindFlags registers every flag on fs with the current cfg values as
// defaults.
func bindFlags(fs *flag.FlagSet, cfg *app.Config, configPath, envFile *string) {
	fs.StringVar(configPath, "config", *configPath, "Path to a YAML or JSON config file")
	if *envFile == "" {
		*envFile = ".env"
	}
	fs.StringVar(envFile, "env", *envFile, "Path to a dotenv file; missing files are ignored")

	fs.StringVar(&cfg.CosingPath, "file.cosing", cfg.CosingPath, "CosIng annex workbook (.xlsx)")
	fs.StringVar(&cfg.SephoraPath, "file.sephora", cfg.SephoraPath, "Sephora product CSV")
	fs.StringVar(&cfg.SkincarePath, "file.skincare", cfg.SkincarePath, "Skincare product CSV")

	fs.StringVar(&cfg.APIURL, "api.url", cfg.APIURL, "Open Beauty Facts search endpoint")
	fs.StringVar(&cfg.APISearchTerms, "api.terms", cfg.APISearchTerms, "Search terms")
	fs.IntVar(&cfg.APIMaxPages, "api.maxPages", cfg.APIMaxPages, "Maximum pages to request")
	fs.IntVar(&cfg.APIPageSize, "api.pageSize", cfg.APIPageSize, "Products per page")

	fs.StringVar(&cfg.ScrapeURL, "scrape.url", cfg.ScrapeURL, "Annex listing page to scrape")
	fs.DurationVar(&cfg.HTTPTimeout, "http.timeout", cfg.HTTPTimeout, "Per-request HTTP timeout")
	fs.StringVar(&cfg.UserAgent, "http.ua", cfg.UserAgent, "User-Agent for HTTP requests")

	fs.StringVar(&cfg.MySQLUser, "mysql.user", cfg.MySQLUser, "MySQL user")
	fs.StringVar(&cfg.MySQLPassword, "mysql.password", cfg.MySQLPassword, "MySQL password (prefer MYSQL_PASSWORD)")
	fs.StringVar(&cfg.MySQLHost, "mysql.host", cfg.MySQLHost, "MySQL host")
	fs.IntVar(&cfg.MySQLPort, "mysql.port", cfg.MySQLPort, "MySQL port")
	fs.StringVar(&cfg.MySQLDB, "mysql.db", cfg.MySQLDB, "MySQL database name")
	fs.BoolVar(&cfg.SkipDB, "skip-db", cfg.SkipDB, "Do not connect to MySQL; report the database source as failed")

	fs.StringVar(&cfg.RawDir, "out.raw", cfg.RawDir, "Directory for CSV snapshots")
	fs.StringVar(&cfg.LogFile, "log.file", cfg.LogFile, "Append log records to this file (empty disables)")
	fs.StringVar(&cfg.SummaryPath, "summary", cfg.SummaryPath, "Write a Markdown run summary to this path")
	fs.StringVar(&cfg.SummaryPDFPath, "summary.pdf", cfg.SummaryPDFPath, "Write a PDF run summary to this path")
	fs.BoolVar(&cfg.Manifest, "summary.manifest", cfg.Manifest, "Write a JSON manifest next to the Markdown summary")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
}
