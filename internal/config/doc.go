// Package config provides configuration loading, merging, and validation
// facilities for the report-sync server and its status monitor.
//
// Configuration is assembled from multiple sources in the following priority
// order (earlier sources win for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON or YAML config file
//  4. Built-in defaults
//
// The main entry points are [GetStructuredConfig] for the server and
// [GetMonitorConfig] for the status monitor.
package config
