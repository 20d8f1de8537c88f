// Package config provides configuration structures and utilities for pdfharvest.
// It defines HTTP client politeness settings, crawl bounds, pipeline options
// and the on-disk data layout, and loads them from the .pdfharvest YAML file
// and SCRAPER_* environment variables.
package config
