// Package simvar keeps freshest known value of every requested flight variable.
//
// Each variable is sampled by its own goroutine, started lazily on first
// reference and kept for the Cache lifetime. Readers never wait for the
// source, only for short copy of one variable record.
// Snapshot is not atomic across variables: values may differ in freshness.
package simvar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/avionics-lab/simbridge/log2"
	"github.com/avionics-lab/simbridge/source"
)

type Options struct {
	Catalog  *Catalog
	Source   source.Source
	Log      *log2.Log
	Interval time.Duration // pause between samples of one variable
}

type Cache struct {
	alive  *alive.Alive
	ctx    context.Context
	cancel context.CancelFunc
	opt    Options

	mu      sync.Mutex
	workers map[string]*worker
}

func NewCache(opt Options) *Cache {
	if opt.Catalog == nil {
		opt.Catalog = NewBuiltinCatalog()
	}
	if opt.Source == nil {
		opt.Source = source.Disconnected{}
	}
	if opt.Interval <= 0 {
		opt.Interval = DefaultInterval
	}
	opt.Log = opt.Log.Named("simvar")
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		alive:   alive.NewAlive(),
		ctx:     ctx,
		cancel:  cancel,
		opt:     opt,
		workers: make(map[string]*worker),
	}
}

// Stop workers and wait. Cache still serves last values after Stop.
func (c *Cache) Stop() {
	c.cancel()
	c.alive.Stop()
	c.alive.Wait()
}

func (c *Cache) Catalog() *Catalog { return c.opt.Catalog }

// Lookup is strict boundary for callers who must reject unknown names.
func (c *Cache) Lookup(name string) (Def, error) {
	if d, ok := c.opt.Catalog.Lookup(name); ok {
		return d, nil
	}
	return Def{}, errors.NotFoundf("variable name=%q", name)
}

// Track starts sampling names without reading them.
func (c *Cache) Track(names ...string) {
	for _, n := range names {
		c.worker(n)
	}
}

// Get returns latest value, ok=false when neither source nor default provides it.
func (c *Cache) Get(name string) (float64, bool) {
	s := c.worker(name).load()
	return s.Value, s.Valid
}

// GetSafe returns 0 for unavailable value.
func (c *Cache) GetSafe(name string) float64 {
	v, ok := c.Get(name)
	if !ok {
		return 0
	}
	return v
}

func (c *Cache) Sample(name string) Sample { return c.worker(name).load() }
func (c *Cache) Rate(name string) float64  { return c.worker(name).load().Rate }
func (c *Cache) IsConnected(name string) bool {
	return c.worker(name).load().Connected
}

// Snapshot maps every tracked name to its latest value.
func (c *Cache) Snapshot() map[string]float64 {
	ws := c.list()
	m := make(map[string]float64, len(ws))
	for _, w := range ws {
		s := w.load()
		m[s.Name] = s.Value
	}
	return m
}

// Samples returns every tracked variable sorted by name.
func (c *Cache) Samples() []Sample {
	ws := c.list()
	ss := make([]Sample, len(ws))
	for i, w := range ws {
		ss[i] = w.load()
	}
	sort.Slice(ss, func(i, j int) bool { return ss[i].Name < ss[j].Name })
	return ss
}

func (c *Cache) Names() []string {
	ws := c.list()
	names := make([]string, len(ws))
	for i, w := range ws {
		names[i] = w.def.Name
	}
	sort.Strings(names)
	return names
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.workers)
}

func (c *Cache) list() []*worker {
	c.mu.Lock()
	ws := make([]*worker, 0, len(c.workers))
	for _, w := range c.workers {
		ws = append(ws, w)
	}
	c.mu.Unlock()
	return ws
}

func (c *Cache) worker(name string) *worker {
	c.mu.Lock()
	if w, ok := c.workers[name]; ok {
		c.mu.Unlock()
		return w
	}

	def, known := c.opt.Catalog.Lookup(name)
	if !known {
		// fail-open: unknown name is sampled without default
		def = Def{Name: name}
	}
	w := newWorker(def, c.opt.Source, c.opt.Log, c.opt.Interval)
	c.workers[name] = w
	if c.alive.Add(1) {
		go w.run(c.ctx, c.alive)
	}
	c.mu.Unlock()

	if !known {
		c.opt.Log.Infof("unknown variable name=%q, no default", name)
	}
	return w
}
