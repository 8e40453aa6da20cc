// Package logging builds the zerolog logger shared by the CLI and the cache.
package logging
