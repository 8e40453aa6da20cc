// Package cli wires together the Cobra command tree for the respcache binary.
//
// It defines the root command and its subcommands (cache, key, config,
// version), reads configuration, opens the cache and maps outcomes to exit
// codes: 0 on success, 1 when a lookup misses, 2 for usage errors and 4 when
// the operation itself fails.
package cli
