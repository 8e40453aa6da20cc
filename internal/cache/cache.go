package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/metric"
)

const (
	// DefaultTTL is the maximum age of a live entry.
	DefaultTTL = 7 * 24 * time.Hour

	// DefaultDir is used when no directory is configured. It is relative to
	// the working directory of the process.
	DefaultDir = "cache"

	// DefaultSweepWorkers bounds how many records Sweep inspects at once.
	DefaultSweepWorkers = 4

	// DefaultTempGrace is how old an orphaned temp file must be before Sweep
	// removes it.
	DefaultTempGrace = time.Hour

	entryExt = ".json"
	tempExt  = ".tmp"
)

// Entry is the on-disk representation of a cached payload.
type Entry struct {
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// rawEntry is used for decoding so that missing fields can be told apart
// from zero values.
type rawEntry struct {
	Timestamp *float64        `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Cache is a file-per-key JSON cache with a fixed time-to-live.
//
// It holds no locks: every read, atomic write and delete is a single file
// operation, and concurrent writers to one key resolve as last-writer-wins.
type Cache struct {
	dir          string
	ttl          time.Duration
	enabled      bool
	fs           afero.Fs
	now          func() time.Time
	logger       zerolog.Logger
	sweepWorkers int
	tempGrace    time.Duration
	meters       metric.MeterProvider
	metrics      *instruments
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithFs sets the filesystem the cache lives on.
func WithFs(fs afero.Fs) Option {
	return func(c *Cache) {
		c.fs = fs
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithSweepWorkers sets how many records Sweep inspects concurrently.
func WithSweepWorkers(n int) Option {
	return func(c *Cache) {
		c.sweepWorkers = n
	}
}

// WithTempGrace sets the minimum age of orphaned temp files removed by Sweep.
func WithTempGrace(d time.Duration) Option {
	return func(c *Cache) {
		c.tempGrace = d
	}
}

// WithMeterProvider sets the provider used for cache counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Cache) {
		c.meters = mp
	}
}

// Disabled turns the cache into a pure-miss layer.
func Disabled() Option {
	return func(c *Cache) {
		c.enabled = false
	}
}

// New creates a Cache rooted at dir. If dir is empty, DefaultDir is used.
// The directory itself is created lazily on first use.
func New(dir string, opts ...Option) (*Cache, error) {
	if dir == "" {
		dir = DefaultDir
	}
	c := &Cache{
		dir:          dir,
		ttl:          DefaultTTL,
		enabled:      true,
		fs:           afero.NewOsFs(),
		now:          time.Now,
		logger:       zerolog.Nop(),
		sweepWorkers: DefaultSweepWorkers,
		tempGrace:    DefaultTempGrace,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", c.ttl)
	}
	if c.sweepWorkers <= 0 {
		c.sweepWorkers = 1
	}
	m, err := newInstruments(c.meters)
	if err != nil {
		return nil, fmt.Errorf("creating cache metrics: %w", err)
	}
	c.metrics = m
	c.logger = c.logger.With().Str("component", "cache").Logger()
	return c, nil
}

// Get returns the payload stored under key. It reports false when the entry
// is absent, expired or corrupt; expired and corrupt entries are removed.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	if !c.enabled || validateKey(key) != nil {
		return nil, false
	}
	_ = c.ensureDir()

	path := c.entryPath(key)
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Debug().Err(err).Str("key", short(key)).Msg("cache read failed")
		}
		c.metrics.miss()
		return nil, false
	}

	entry, err := decodeEntry(data)
	if err != nil {
		c.logger.Debug().Err(err).Str("key", short(key)).Msg("removing corrupt cache entry")
		c.remove(path)
		c.metrics.evict(reasonCorrupt)
		c.metrics.miss()
		return nil, false
	}
	if c.expired(entry, c.now()) {
		c.logger.Debug().Str("key", short(key)).Msg("removing expired cache entry")
		c.remove(path)
		c.metrics.evict(reasonExpired)
		c.metrics.miss()
		return nil, false
	}

	c.logger.Debug().Str("key", short(key)).Msg("cache hit")
	c.metrics.hit()
	return entry.Data, true
}

// Put stores payload under key, replacing any previous entry. The payload is
// stored in compact form. The entry is written to a temp file and renamed
// into place, so readers never observe a partially written record.
func (c *Cache) Put(key string, payload json.RawMessage) error {
	if !c.enabled {
		return nil
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if !json.Valid(payload) {
		return ErrInvalidPayload
	}
	if err := c.write(key, payload); err != nil {
		c.logger.Warn().Err(err).Str("key", short(key)).Msg("cache write failed")
		c.metrics.writeFailed()
		return err
	}
	c.logger.Debug().Str("key", short(key)).Msg("cached")
	c.metrics.wrote()
	return nil
}

// PutValue marshals v and stores it under key.
func (c *Cache) PutValue(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling cache payload: %w", err)
	}
	return c.Put(key, data)
}

// Delete removes the entry for key. A missing entry is not an error.
func (c *Cache) Delete(key string) error {
	if !c.enabled {
		return nil
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if err := c.fs.Remove(c.entryPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing cache entry: %w", err)
	}
	return nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// TTL returns the entry time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c.enabled
}

func (c *Cache) write(key string, payload json.RawMessage) error {
	if err := c.ensureDir(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Entry{Timestamp: unixSeconds(c.now()), Data: payload}); err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	tmp, err := afero.TempFile(c.fs, c.dir, key+entryExt+".*"+tempExt)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = c.fs.Remove(tmpPath)
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = c.fs.Remove(tmpPath)
		return fmt.Errorf("syncing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = c.fs.Remove(tmpPath)
		return fmt.Errorf("closing cache entry: %w", err)
	}
	if err := c.fs.Rename(tmpPath, c.entryPath(key)); err != nil {
		_ = c.fs.Remove(tmpPath)
		return fmt.Errorf("promoting cache entry: %w", err)
	}
	return nil
}

func (c *Cache) ensureDir() error {
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	return nil
}

func (c *Cache) expired(e rawEntry, now time.Time) bool {
	age := unixSeconds(now) - *e.Timestamp
	return age > c.ttl.Seconds()
}

// remove deletes a record, ignoring one that is already gone.
func (c *Cache) remove(path string) bool {
	err := c.fs.Remove(path)
	if err == nil {
		return true
	}
	if !errors.Is(err, os.ErrNotExist) {
		c.logger.Debug().Err(err).Str("path", path).Msg("could not remove cache record")
	}
	return false
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+entryExt)
}

func decodeEntry(data []byte) (rawEntry, error) {
	var e rawEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return rawEntry{}, fmt.Errorf("decoding cache entry: %w", err)
	}
	if e.Timestamp == nil {
		return rawEntry{}, errors.New("cache entry has no timestamp")
	}
	if len(e.Data) == 0 {
		return rawEntry{}, errors.New("cache entry has no data")
	}
	return e, nil
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return ErrInvalidKey
	}
	return nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// short abbreviates a key for log output.
func short(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}
