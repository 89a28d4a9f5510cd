// Package logging provides slog-based structured logging for the authwire CLI.
//
// Text output is optimized for terminals (colorized when supported), and a
// JSON format is available for machine consumption. Use ForTest to route log
// output through a testing.T.
package logging
