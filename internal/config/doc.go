// Package config provides configuration structures and utilities for sitescan.
// It defines the main configuration options for crawling targets, output
// artifacts, and report generation preferences, plus the .sitescan YAML file
// with per-target sections.
package config
