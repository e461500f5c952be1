// Package file provides a TOML file-based implementation of the
// ConfigStore port, with optional hot reload via filesystem watching.
package file
