// Package cache provides a persistent, file-based response cache for
// expensive external calls such as LLM generation and OCR.
//
// Keys are derived with [DeriveKey] from an ordered list of discriminators
// (operation name, truncated request text, extra parameters). Each part is
// length-prefixed before hashing, so free-form text cannot make two different
// requests collide on one key.
//
// Every key maps to one <key>.json file holding a creation timestamp in unix
// seconds and the cached JSON payload under "data". Entries older than the
// TTL (seven days by default) are never returned; reads that find an expired
// or corrupt record delete it. [Cache.Sweep] removes all such records at once.
//
// Writes go to a temp file in the cache directory and are renamed into place,
// so a reader sees either the previous entry or the new one. Cache failures
// never escalate: reads degrade to misses and write errors are advisory.
// [Remember] wraps the usual get-or-compute pattern.
package cache
