package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/respcache/internal/cache"
)

// JSONWriter outputs results as indented JSON.
type JSONWriter struct{}

type statsView struct {
	cache.Stats
	TotalSizeKB float64 `json:"totalSizeKB"`
	TotalSizeMB float64 `json:"totalSizeMB"`
}

func (j *JSONWriter) WriteStats(w io.Writer, stats cache.Stats) error {
	return writeJSON(w, statsView{
		Stats:       stats,
		TotalSizeKB: kilobytes(stats.TotalBytes),
		TotalSizeMB: megabytes(stats.TotalBytes),
	})
}

func (j *JSONWriter) WriteRemoval(w io.Writer, r Removal) error {
	return writeJSON(w, r)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
