// Package config provides tool configuration for authwire using Viper.
//
// Configuration is read from config.yaml in the current directory or the
// XDG config directory, with AUTHWIRE_* environment variables taking
// precedence over file values.
package config
