package config

import "time"

// SiteConfig holds request settings for a single host.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent to this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent to this host.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// ScraperSettings mirrors the SCRAPER_* environment variables.
// Pointer fields distinguish "absent" from a zero value so that a partial
// file never resets a default.
type ScraperSettings struct {
	UserAgent       *string  `yaml:"user_agent,omitempty"`
	Timeout         *float64 `yaml:"timeout,omitempty"`
	MaxRetries      *int     `yaml:"max_retries,omitempty"`
	BackoffBase     *float64 `yaml:"backoff_base,omitempty"`
	RateLimit       *float64 `yaml:"rate_limit,omitempty"`
	RespectRobots   *bool    `yaml:"respect_robots,omitempty"`
	MaxPagesPerSeed *int     `yaml:"max_pages_per_seed,omitempty"`
	Concurrency     *int     `yaml:"concurrency,omitempty"`

	// NextLabels replaces the anchor texts that mark the next listing page.
	NextLabels []string `yaml:"next_labels,omitempty"`
}

// PipelineSettings holds orchestrator options.
type PipelineSettings struct {
	Limit         *int    `yaml:"limit,omitempty"`
	OCR           *bool   `yaml:"ocr,omitempty"`
	PDFLinkPrefix *string `yaml:"pdf_link_prefix,omitempty"`
	Category      *string `yaml:"category,omitempty"`
	DataDir       *string `yaml:"data_dir,omitempty"`

	// TableCellGap is the horizontal gap, in PDF points, that opens a new
	// table cell.
	TableCellGap *float64 `yaml:"table_cell_gap,omitempty"`
}

// File represents the structure of the .pdfharvest configuration file.
type File struct {
	// Seeds are listing page URLs crawled when none are given on the command line.
	Seeds []string `yaml:"seeds,omitempty"`

	// Scraper holds HTTP client and crawler settings.
	Scraper ScraperSettings `yaml:"scraper,omitempty"`

	// Pipeline holds orchestrator settings.
	Pipeline PipelineSettings `yaml:"pipeline,omitempty"`

	// Sites maps host names to their request settings.
	// Keys are host names without scheme (e.g., "www.mospi.gov.in").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults is applied to every host unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific host.
// It merges the host-specific configuration with defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := SiteConfig{Cookie: cf.Defaults.Cookie}
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	return result
}

// Apply copies every present value of the file onto cfg.
func (cf *File) Apply(cfg *Config) {
	if len(cf.Seeds) > 0 {
		cfg.Seeds = append([]string(nil), cf.Seeds...)
	}

	s := cf.Scraper
	if s.UserAgent != nil {
		cfg.UserAgent = *s.UserAgent
	}
	if s.Timeout != nil {
		cfg.Timeout = seconds(*s.Timeout)
	}
	if s.MaxRetries != nil {
		cfg.MaxRetries = *s.MaxRetries
	}
	if s.BackoffBase != nil {
		cfg.BackoffBase = seconds(*s.BackoffBase)
	}
	if s.RateLimit != nil {
		cfg.RateLimit = seconds(*s.RateLimit)
	}
	if s.RespectRobots != nil {
		cfg.RespectRobots = *s.RespectRobots
	}
	if s.MaxPagesPerSeed != nil {
		cfg.MaxPagesPerSeed = *s.MaxPagesPerSeed
	}
	if s.Concurrency != nil {
		cfg.Concurrency = *s.Concurrency
	}
	if len(s.NextLabels) > 0 {
		cfg.NextLabels = append([]string(nil), s.NextLabels...)
	}

	p := cf.Pipeline
	if p.Limit != nil {
		cfg.Limit = *p.Limit
	}
	if p.OCR != nil {
		cfg.UseOCR = *p.OCR
	}
	if p.PDFLinkPrefix != nil {
		cfg.PDFLinkPrefix = *p.PDFLinkPrefix
	}
	if p.Category != nil {
		cfg.Category = *p.Category
	}
	if p.DataDir != nil && *p.DataDir != "" {
		cfg.DataDir = *p.DataDir
	}
	if p.TableCellGap != nil {
		cfg.TableCellGap = *p.TableCellGap
	}

	cfg.SiteConfigs = cf
}

// seconds converts fractional seconds to a Duration.
func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
