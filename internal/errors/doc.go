// Package errors defines the failure taxonomy for the scaffolding pipeline
// and exit-code handling for the CLI layer.
//
// Component packages return plain wrapped errors classified with one of the
// failure kinds below. The pipeline converts every classified error into a
// Result value at its boundary; nothing propagates past it. The CLI maps
// Result errors onto process exit codes via ExitError.
package errors
