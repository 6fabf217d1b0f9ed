// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Every field has a default, so running without a config file is supported;
// command-line flags are applied on top of the loaded values.
package config
