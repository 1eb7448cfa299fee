// Package config handles configuration for the development collector,
// including defaults, a JSON overlay, environment variables and flags.
package config
