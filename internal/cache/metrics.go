package cache

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/dshills/respcache/internal/cache"

const (
	reasonExpired = "expired"
	reasonCorrupt = "corrupt"
)

type instruments struct {
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	evictions     metric.Int64Counter
	writes        metric.Int64Counter
	writeFailures metric.Int64Counter
	swept         metric.Int64Counter
}

func newInstruments(mp metric.MeterProvider) (*instruments, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	var (
		m   instruments
		err error
	)
	if m.hits, err = meter.Int64Counter("respcache.hits",
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}"),
	); err != nil {
		return nil, err
	}
	if m.misses, err = meter.Int64Counter("respcache.misses",
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}"),
	); err != nil {
		return nil, err
	}
	if m.evictions, err = meter.Int64Counter("respcache.evictions",
		metric.WithDescription("Entries removed by reads because they were expired or corrupt"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}
	if m.writes, err = meter.Int64Counter("respcache.writes",
		metric.WithDescription("Number of entries written"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}
	if m.writeFailures, err = meter.Int64Counter("respcache.write_failures",
		metric.WithDescription("Number of failed cache writes"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}
	if m.swept, err = meter.Int64Counter("respcache.swept",
		metric.WithDescription("Entries removed by sweeps"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *instruments) hit() {
	m.hits.Add(context.Background(), 1)
}

func (m *instruments) miss() {
	m.misses.Add(context.Background(), 1)
}

func (m *instruments) evict(reason string) {
	m.evictions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *instruments) wrote() {
	m.writes.Add(context.Background(), 1)
}

func (m *instruments) writeFailed() {
	m.writeFailures.Add(context.Background(), 1)
}

func (m *instruments) sweptN(n int) {
	if n > 0 {
		m.swept.Add(context.Background(), int64(n))
	}
}
