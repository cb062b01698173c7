// Package config loads wpgate configuration from a YAML file with ${VAR}
// environment expansion, so the shared WordPress secrets can stay out of
// the file on disk.
package config
