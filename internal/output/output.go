package output

import (
	"fmt"
	"io"
	"math"

	"github.com/dshills/respcache/internal/cache"
)

// Removal describes the outcome of a sweep or clear.
type Removal struct {
	Op      string `json:"op"`
	Dir     string `json:"dir"`
	Removed int    `json:"removed"`
}

// Writer renders command results in a specific format.
type Writer interface {
	WriteStats(w io.Writer, stats cache.Stats) error
	WriteRemoval(w io.Writer, r Removal) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "", "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// kilobytes and megabytes round to two decimals.
func kilobytes(n int64) float64 {
	return math.Round(float64(n)/1024*100) / 100
}

func megabytes(n int64) float64 {
	return math.Round(float64(n)/(1024*1024)*100) / 100
}
