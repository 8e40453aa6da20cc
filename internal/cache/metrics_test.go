package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newMeteredCache(t *testing.T, opts ...Option) (*Cache, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	c, err := New(t.TempDir(), append(opts, WithMeterProvider(provider))...)
	require.NoError(t, err)
	return c, reader
}

// counterTotals sums every data point per metric name, and per
// "name/reason" for points carrying a reason attribute.
func counterTotals(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("expected Sum[int64] for %s, got %T", m.Name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
				if reason, ok := dp.Attributes.Value(attribute.Key("reason")); ok {
					totals[m.Name+"/"+reason.AsString()] += dp.Value
				}
			}
		}
	}
	return totals
}

func TestMetrics_ReadAndWritePath(t *testing.T) {
	clock := newFakeClock()
	c, reader := newMeteredCache(t, WithClock(clock.Now))

	_, _ = c.Get("k")
	require.NoError(t, c.Put("k", json.RawMessage(`{"v":1}`)))
	_, _ = c.Get("k")
	clock.Advance(DefaultTTL * 2)
	_, _ = c.Get("k")

	totals := counterTotals(t, reader)
	require.Equal(t, int64(1), totals["respcache.hits"])
	require.Equal(t, int64(2), totals["respcache.misses"])
	require.Equal(t, int64(1), totals["respcache.writes"])
	require.Equal(t, int64(1), totals["respcache.evictions/expired"])
	require.Zero(t, totals["respcache.evictions/corrupt"])
}

func TestMetrics_CorruptAndSweep(t *testing.T) {
	clock := newFakeClock()
	c, reader := newMeteredCache(t, WithClock(clock.Now))

	writeRecord(t, c, "bad", `{`)
	_, _ = c.Get("bad")

	require.NoError(t, c.Put("a", json.RawMessage(`1`)))
	require.NoError(t, c.Put("b", json.RawMessage(`2`)))
	clock.Advance(DefaultTTL * 2)
	removed, err := c.Sweep()
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	totals := counterTotals(t, reader)
	require.Equal(t, int64(1), totals["respcache.evictions/corrupt"])
	require.Equal(t, int64(2), totals["respcache.swept"])
}

func TestMetrics_WriteFailure(t *testing.T) {
	c, reader := newMeteredCache(t, WithFs(afero.NewReadOnlyFs(afero.NewMemMapFs())))

	require.Error(t, c.Put("k", json.RawMessage(`1`)))

	totals := counterTotals(t, reader)
	require.Equal(t, int64(1), totals["respcache.write_failures"])
	require.Zero(t, totals["respcache.writes"])
}
