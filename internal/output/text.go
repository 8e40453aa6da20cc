package output

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/dshills/respcache/internal/cache"
)

// TextWriter outputs human-readable text.
type TextWriter struct{}

func (t *TextWriter) WriteStats(w io.Writer, stats cache.Stats) error {
	ew := &errWriter{w: w}
	ew.printf("Cache directory: %s\n", stats.Dir)
	ew.printf("Entries:         %d\n", stats.Entries)
	ew.printf("Total size:      %s (%.2f KB, %.2f MB)\n",
		humanize.IBytes(uint64(stats.TotalBytes)),
		kilobytes(stats.TotalBytes),
		megabytes(stats.TotalBytes),
	)
	return ew.err
}

func (t *TextWriter) WriteRemoval(w io.Writer, r Removal) error {
	ew := &errWriter{w: w}
	switch r.Op {
	case "clear":
		ew.printf("Cache cleared: %s removed from %s.\n", plural(r.Removed), r.Dir)
	default:
		ew.printf("Swept expired or corrupt entries: %s removed from %s.\n", plural(r.Removed), r.Dir)
	}
	return ew.err
}

func plural(n int) string {
	if n == 1 {
		return "1 entry"
	}
	return fmt.Sprintf("%s entries", humanize.Comma(int64(n)))
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
