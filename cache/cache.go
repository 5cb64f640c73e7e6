// Package cache keeps compiled validators keyed by the structural fingerprint
// of the schema they were built from.
package cache

import (
	"sync"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/oarkflow/oasschema/jsonschema"
	"github.com/oarkflow/oasschema/logger"
	"github.com/oarkflow/oasschema/settings"
)

const maxInt = int(^uint(0) >> 1)

// Entry is a compiled validator and whether its schema passed the
// metaschema check.
type Entry struct {
	Validator     *jsonschema.Validator
	SchemaChecked bool
}

type Config struct {
	// MaxSize is read on every Set. Nil reads the process settings.
	MaxSize func() int
}

func (cfg Config) maxSize() int {
	if cfg.MaxSize != nil {
		return cfg.MaxSize()
	}
	return settings.MustGet().CompiledValidatorCacheMaxSize
}

// Cache is a least-recently-used table of compiled validators. Every
// operation holds one mutex; validation itself runs outside of it.
type Cache struct {
	mtx sync.Mutex

	cfg    Config
	logger *log.Logger
	lru    *lru.LRU[Key, *Entry]

	requests prometheus.Counter
	hits     prometheus.Counter
	added    prometheus.Counter
	evicted  prometheus.Counter
	items    prometheus.GaugeFunc
}

// New creates a cache. A nil logger uses the process logger and a nil
// registerer keeps the metrics unregistered.
func New(cfg Config, l *log.Logger, reg prometheus.Registerer) *Cache {
	if l == nil {
		l = logger.Instance()
	}
	c := &Cache{
		cfg:    cfg,
		logger: l,
	}

	c.requests = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "oasschema_compiled_validator_cache_requests_total",
		Help: "Total number of lookups in the compiled validator cache.",
	})
	c.hits = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "oasschema_compiled_validator_cache_hits_total",
		Help: "Total number of lookups in the compiled validator cache that were a hit.",
	})
	c.added = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "oasschema_compiled_validator_cache_items_added_total",
		Help: "Total number of compiled validators added to the cache.",
	})
	c.evicted = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "oasschema_compiled_validator_cache_items_evicted_total",
		Help: "Total number of compiled validators evicted from the cache.",
	})
	c.items = promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "oasschema_compiled_validator_cache_items",
		Help: "Current number of compiled validators in the cache.",
	}, func() float64 {
		return float64(c.Len())
	})

	// The bound is enforced in Set, so the LRU itself never evicts.
	table, err := lru.NewLRU(maxInt, c.onEvict)
	if err != nil {
		panic(err)
	}
	c.lru = table

	c.logger.Debug("created compiled validator cache", "maxSize", cfg.maxSize())
	return c
}

func (c *Cache) onEvict(key Key, _ *Entry) {
	c.evicted.Inc()
	c.logger.Debug("evicted compiled validator", "key", key)
}

// Describe and Collect let a cache built without a registerer be
// registered later.
func (c *Cache) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.collectors() {
		m.Describe(ch)
	}
}

func (c *Cache) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.collectors() {
		m.Collect(ch)
	}
}

func (c *Cache) collectors() []prometheus.Collector {
	return []prometheus.Collector{c.requests, c.hits, c.added, c.evicted, c.items}
}

// Get returns the entry for key and marks it most recently used.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.requests.Inc()

	c.mtx.Lock()
	defer c.mtx.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		return Entry{}, false
	}
	c.hits.Inc()
	return *e, true
}

// Set stores an entry and evicts the least recently used ones beyond the
// configured bound.
func (c *Cache) Set(key Key, validator *jsonschema.Validator, schemaChecked bool) Entry {
	e := &Entry{Validator: validator, SchemaChecked: schemaChecked}
	bound := c.cfg.maxSize()

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if !c.lru.Contains(key) {
		c.added.Inc()
	}
	c.lru.Add(key, e)
	for c.lru.Len() > bound {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
	}
	return *e
}

// MarkChecked records that the entry's schema passed the metaschema check.
func (c *Cache) MarkChecked(key Key) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if e, ok := c.lru.Get(key); ok {
		e.SchemaChecked = true
	}
}

// Checked reports whether key is cached with a checked schema. It neither
// counts as a lookup nor changes recency.
func (c *Cache) Checked(key Key) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	e, ok := c.lru.Peek(key)
	return ok && e.SchemaChecked
}

// Touch marks key most recently used.
func (c *Cache) Touch(key Key) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.lru.Get(key)
}

func (c *Cache) Clear() {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.lru.Purge()
}

func (c *Cache) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.lru.Len()
}

// Keys lists the cached keys from least to most recently used.
func (c *Cache) Keys() []Key {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.lru.Keys()
}
