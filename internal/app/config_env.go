package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. Env takes precedence over the config file and defaults; flags are
// applied afterwards and win over both.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	setString := func(dst *string, envKey string) {
		if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
			*dst = v
		}
	}
	setString(&cfg.CosingPath, "FILE_COSING")
	setString(&cfg.SephoraPath, "FILE_SEPHORA")
	setString(&cfg.SkincarePath, "FILE_SKINCARE")
	setString(&cfg.APIURL, "API_URL")
	setString(&cfg.APISearchTerms, "API_SEARCH_TERMS")
	setString(&cfg.ScrapeURL, "SCRAPE_URL")
	setString(&cfg.UserAgent, "HTTP_USER_AGENT")
	setString(&cfg.MySQLUser, "MYSQL_USER")
	setString(&cfg.MySQLHost, "MYSQL_HOST")
	setString(&cfg.MySQLDB, "MYSQL_DB")
	setString(&cfg.RawDir, "RAW_DIR")
	setString(&cfg.LogFile, "LOG_FILE")
	setString(&cfg.SummaryPath, "SUMMARY_PATH")
	setString(&cfg.SummaryPDFPath, "SUMMARY_PDF")
	// An empty password is a valid setting, so presence is what counts.
	if v, ok := os.LookupEnv("MYSQL_PASSWORD"); ok {
		cfg.MySQLPassword = v
	}

	setInt := func(dst *int, envKey string) {
		if s := strings.TrimSpace(os.Getenv(envKey)); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n >= 0 {
				*dst = n
			}
		}
	}
	setInt(&cfg.APIMaxPages, "API_MAX_PAGES")
	setInt(&cfg.APIPageSize, "API_PAGE_SIZE")
	setInt(&cfg.MySQLPort, "MYSQL_PORT")

	// HTTP_TIMEOUT accepts a Go duration ("45s") or whole seconds ("45").
	if s := strings.TrimSpace(os.Getenv("HTTP_TIMEOUT")); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.HTTPTimeout = d
		} else if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			cfg.HTTPTimeout = time.Duration(n) * time.Second
		}
	}

	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.SkipDB, "SKIP_DB")
	setBool(&cfg.Manifest, "SUMMARY_MANIFEST")
}
