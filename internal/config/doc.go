// Package config loads and merges respcache configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags (--cache-dir, --ttl, --log-level, --log-format, --format)
//  2. Environment variables (RESPCACHE_CACHE_DIR, RESPCACHE_CACHE_TTL, RESPCACHE_LOG_LEVEL, etc.)
//  3. Config file (./respcache.yaml, then $XDG_CONFIG_HOME/respcache/respcache.yaml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single key.
package config
