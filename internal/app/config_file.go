package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags and environment variables.
type FileConfig struct {
	Files struct {
		Cosing   string `yaml:"cosing" json:"cosing"`
		Sephora  string `yaml:"sephora" json:"sephora"`
		Skincare string `yaml:"skincare" json:"skincare"`
	} `yaml:"files" json:"files"`

	API struct {
		URL         string `yaml:"url" json:"url"`
		SearchTerms string `yaml:"searchTerms" json:"searchTerms"`
		MaxPages    int    `yaml:"maxPages" json:"maxPages"`
		PageSize    int    `yaml:"pageSize" json:"pageSize"`
	} `yaml:"api" json:"api"`

	Scrape struct {
		URL string `yaml:"url" json:"url"`
	} `yaml:"scrape" json:"scrape"`

	HTTP struct {
		Timeout   time.Duration `yaml:"timeout" json:"timeout"`
		UserAgent string        `yaml:"userAgent" json:"userAgent"`
	} `yaml:"http" json:"http"`

	MySQL struct {
		User     string `yaml:"user" json:"user"`
		Password string `yaml:"password" json:"password"`
		Host     string `yaml:"host" json:"host"`
		Port     int    `yaml:"port" json:"port"`
		DB       string `yaml:"db" json:"db"`
		Skip     bool   `yaml:"skip" json:"skip"`
	} `yaml:"mysql" json:"mysql"`

	Output struct {
		RawDir     string `yaml:"rawDir" json:"rawDir"`
		LogFile    string `yaml:"logFile" json:"logFile"`
		Summary    string `yaml:"summary" json:"summary"`
		SummaryPDF string `yaml:"summaryPDF" json:"summaryPDF"`
		Manifest   bool   `yaml:"manifest" json:"manifest"`
	} `yaml:"output" json:"output"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value the file sets onto cfg. It runs on
// top of the defaults and before environment and flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&cfg.CosingPath, fc.Files.Cosing)
	setString(&cfg.SephoraPath, fc.Files.Sephora)
	setString(&cfg.SkincarePath, fc.Files.Skincare)
	setString(&cfg.APIURL, fc.API.URL)
	setString(&cfg.APISearchTerms, fc.API.SearchTerms)
	setString(&cfg.ScrapeURL, fc.Scrape.URL)
	setString(&cfg.UserAgent, fc.HTTP.UserAgent)
	setString(&cfg.MySQLUser, fc.MySQL.User)
	setString(&cfg.MySQLPassword, fc.MySQL.Password)
	setString(&cfg.MySQLHost, fc.MySQL.Host)
	setString(&cfg.MySQLDB, fc.MySQL.DB)
	setString(&cfg.RawDir, fc.Output.RawDir)
	setString(&cfg.LogFile, fc.Output.LogFile)
	setString(&cfg.SummaryPath, fc.Output.Summary)
	setString(&cfg.SummaryPDFPath, fc.Output.SummaryPDF)

	if fc.API.MaxPages > 0 {
		cfg.APIMaxPages = fc.API.MaxPages
	}
	if fc.API.PageSize > 0 {
		cfg.APIPageSize = fc.API.PageSize
	}
	if fc.MySQL.Port > 0 {
		cfg.MySQLPort = fc.MySQL.Port
	}
	if fc.HTTP.Timeout > 0 {
		cfg.HTTPTimeout = fc.HTTP.Timeout
	}
	if fc.MySQL.Skip {
		cfg.SkipDB = true
	}
	if fc.Output.Manifest {
		cfg.Manifest = true
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
}
