// Package config loads and validates file based configuration for storymesh
// deployments. Configuration is YAML with environment variable overrides for
// secrets, so API keys never have to be committed alongside the rest of the
// settings.
package config
