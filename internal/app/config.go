package app

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperifyio/regextract/internal/offapi"
	"github.com/hyperifyio/regextract/internal/scrape"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Local files
	CosingPath   string
	SephoraPath  string
	SkincarePath string

	// Open Beauty Facts search
	APIURL         string
	APISearchTerms string
	APIMaxPages    int
	APIPageSize    int

	// Annex page
	ScrapeURL string

	// HTTP
	HTTPTimeout time.Duration
	UserAgent   string

	// MySQL
	MySQLUser     string
	MySQLPassword string
	MySQLHost     string
	MySQLPort     int
	MySQLDB       string
	SkipDB        bool

	// Outputs
	RawDir         string
	LogFile        string
	SummaryPath    string
	SummaryPDFPath string
	Manifest       bool

	Verbose bool
}

// Defaults applied when neither flags, environment nor config file set a value.
const (
	defaultDataDir     = "data/raw"
	defaultLogFile     = "logs/extraction.log"
	defaultHTTPTimeout = 30 * time.Second
	defaultMySQLUser   = "root"
	defaultMySQLHost   = "localhost"
	defaultMySQLPort   = 3306
	defaultMySQLDB     = "cosmetics_regulatory_db"
)

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		CosingPath:     filepath.Join(defaultDataDir, "COSING_Annex_III_v2.xlsx"),
		SephoraPath:    filepath.Join(defaultDataDir, "product_info.csv"),
		SkincarePath:   filepath.Join(defaultDataDir, "cosmetics.csv"),
		APIURL:         offapi.DefaultBaseURL,
		APISearchTerms: offapi.DefaultSearchTerms,
		APIMaxPages:    offapi.DefaultMaxPages,
		APIPageSize:    offapi.DefaultPageSize,
		ScrapeURL:      scrape.DefaultURL,
		HTTPTimeout:    defaultHTTPTimeout,
		MySQLUser:      defaultMySQLUser,
		MySQLHost:      defaultMySQLHost,
		MySQLPort:      defaultMySQLPort,
		MySQLDB:        defaultMySQLDB,
		RawDir:         defaultDataDir,
		LogFile:        defaultLogFile,
	}
}

// ValidateConfig performs minimal validation of required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.RawDir) == "" {
		return errors.New("config: raw output directory is required")
	}
	if cfg.APIMaxPages < 0 || cfg.APIPageSize < 0 {
		return errors.New("config: negative pagination limits are not allowed")
	}
	if cfg.MySQLPort < 0 || cfg.MySQLPort > 65535 {
		return errors.New("config: mysql port out of range")
	}
	if cfg.HTTPTimeout < 0 {
		return errors.New("config: negative http timeout")
	}
	if cfg.Manifest && strings.TrimSpace(cfg.SummaryPath) == "" {
		return errors.New("config: manifest requires a summary path")
	}
	return nil
}
