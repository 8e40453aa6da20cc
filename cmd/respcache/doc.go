// Respcache is a CLI for the persistent, content-addressed response cache.
//
// Each response is stored as one JSON file named after a digest of the inputs
// that produced it and is treated as absent once it is older than the
// configured time-to-live.
//
// Usage:
//
//	respcache key summarize "some text"       # derive a key from parts
//	respcache key --request cards "text" 10   # key for an operation over request text
//	respcache cache put <key> payload.json    # store a payload
//	respcache cache get <key>                 # print a payload, exit 1 on miss
//	respcache cache show                      # entry count and total size
//	respcache cache sweep                     # remove expired and corrupt entries
//	respcache config init                     # write a default config file
package main
