// Package output formats cache statistics and maintenance results for display
// or machine consumption.
//
// Two formats are supported:
//   - text — human-readable terminal output (default)
//   - json — indented JSON
//
// Use [GetWriter] to obtain a [Writer] for a given format string.
package output
